package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Category is one municipal service area a complaint can belong to.
type Category string

const (
	CategoryWaterSupply       Category = "Water Supply"
	CategoryWasteManagement   Category = "Waste Management"
	CategoryStreetLight       Category = "Street Light"
	CategoryRoadMaintenance   Category = "Road Maintenance"
	CategoryTrafficManagement Category = "Traffic Management"
	CategoryNoisePollution    Category = "Noise Pollution"
	CategoryPublicHealth      Category = "Public Health"
	CategoryPropertyTax       Category = "Property Tax"
	CategoryCertificate       Category = "Birth/Death Certificate"
	CategoryGeneral           Category = "General"
)

// Categories lists the closed category set in matching order.
var Categories = []Category{
	CategoryWaterSupply,
	CategoryWasteManagement,
	CategoryStreetLight,
	CategoryRoadMaintenance,
	CategoryTrafficManagement,
	CategoryNoisePollution,
	CategoryPublicHealth,
	CategoryPropertyTax,
	CategoryCertificate,
	CategoryGeneral,
}

var categoryPriority = map[Category]TicketPriority{
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

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := categoryPriority[c]
	return ok
}

// CategoryNames returns the category labels as plain strings.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return names
}

// NormalizeCategory maps any classifier label onto the closed category set.
// Exact case-insensitive matches win, then substring matches in either direction,
// and anything else falls back to General.
func NormalizeCategory(raw string) Category {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return CategoryGeneral
	}
	for _, c := range Categories {
		if strings.ToLower(string(c)) == cleaned {
			return c
		}
	}
	for _, c := range Categories {
		name := strings.ToLower(string(c))
		if strings.Contains(cleaned, name) || strings.Contains(name, cleaned) {
			return c
		}
	}
	return CategoryGeneral
}

// DeterminePriority derives the triage priority from a category.
func DeterminePriority(c Category) TicketPriority {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return TicketPriorityLow
}

const defaultConfidence = 0.5

// ClampConfidence coerces an upstream confidence into [0, 1].
// Values that are not numbers yield 0.5.
func ClampConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}
	if math.IsNaN(f) {
		return defaultConfidence
	}
	return math.Min(math.Max(f, 0), 1)
}
