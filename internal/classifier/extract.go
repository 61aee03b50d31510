package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// ErrNoJSON is returned when a model reply holds no brace-delimited span.
var ErrNoJSON = errors.New("no JSON object in model reply")

// ExtractJSONSpan strips code fences and returns the text between the first '{'
// and the last '}' inclusive.
func ExtractJSONSpan(raw string) (string, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	return cleaned[start : end+1], nil
}

// parseJudgement decodes the model reply and coerces it into a Judgement.
func parseJudgement(raw, message, username string) (Judgement, error) {
	span, err := ExtractJSONSpan(raw)
	if err != nil {
		return Judgement{}, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Judgement{}, err
	}

	var confidence any
	if n, ok := fields["confidence"].(json.Number); ok {
		confidence = n
	}

	return Judgement{
		IsValidComplaint: truthy(fields["isValidComplaint"]),
		Category:         string(domain.NormalizeCategory(stringField(fields, "category"))),
		HasLocation:      truthy(fields["hasLocation"]),
		NeedsLocation:    truthy(fields["needsLocation"]),
		CreateTicket:     truthy(fields["createTicket"]),
		Confidence:       domain.ClampConfidence(confidence),
		Translation:      orDefault(stringField(fields, "translation"), message),
		Reason:           orDefault(stringField(fields, "reason"), "Analysis completed"),
		Response:         orDefault(stringField(fields, "response"), replyDefault),
		OriginalMessage:  message,
		Username:         username,
	}, nil
}

// truthy accepts booleans, non-zero numbers and strings strconv.ParseBool understands.
// Anything else counts as false.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
