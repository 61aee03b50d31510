package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]Category{
		"":                             CategoryGeneral,
		"   ":                          CategoryGeneral,
		"Waste Management":             CategoryWasteManagement,
		"waste management":             CategoryWasteManagement,
		"  STREET LIGHT ":              CategoryStreetLight,
		"Water":                        CategoryWaterSupply,
		"water supply issue":           CategoryWaterSupply,
		"Birth/Death Certificate":      CategoryCertificate,
		"certificate":                  CategoryCertificate,
		"Public Health emergency":      CategoryPublicHealth,
		"Electricity":                  CategoryGeneral,
		"kuppai":                       CategoryGeneral,
		"Traffic Management - signals": CategoryTrafficManagement,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), "input %q", in)
	}
}

func TestNormalizeCategory_AlwaysInClosedSet(t *testing.T) {
	inputs := []string{
		"", "x", "road", "ROAD MAINTENANCE", "tax", "noise", "light", "gen", "health",
		"வார்டு 5 குப்பை", "{\"category\":1}", "Management", "/", "a",
	}
	for _, in := range inputs {
		got := NormalizeCategory(in)
		assert.True(t, got.Valid(), "input %q produced %q", in, got)
	}
}

func TestDeterminePriority(t *testing.T) {
	expected := map[Category]TicketPriority{
		CategoryPublicHealth:      TicketPriorityHigh,
		CategoryWaterSupply:       TicketPriorityHigh,
		CategoryRoadMaintenance:   TicketPriorityMedium,
		CategoryStreetLight:       TicketPriorityMedium,
		CategoryWasteManagement:   TicketPriorityMedium,
		CategoryTrafficManagement: TicketPriorityLow,
		CategoryNoisePollution:    TicketPriorityLow,
		CategoryPropertyTax:       TicketPriorityLow,
		CategoryCertificate:       TicketPriorityLow,
		CategoryGeneral:           TicketPriorityLow,
	}
	assert.Len(t, expected, len(Categories))
	for c, want := range expected {
		assert.Equal(t, want, DeterminePriority(c), "category %q", c)
		assert.Equal(t, DeterminePriority(c), DeterminePriority(c))
	}
	assert.Equal(t, TicketPriorityLow, DeterminePriority(Category("Electricity")))
	assert.Equal(t, TicketPriorityLow, DeterminePriority(""))
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{0.9, 0.9},
		{1.7, 1},
		{-3.0, 0},
		{0, 0},
		{1, 1},
		{float32(0.25), 0.25},
		{int64(5), 1},
		{json.Number("0.4"), 0.4},
		{json.Number("abc"), 0.5},
		{"0.8", 0.5},
		{nil, 0.5},
		{true, 0.5},
		{math.NaN(), 0.5},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tc := range cases {
		got := ClampConfidence(tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %#v", tc.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
