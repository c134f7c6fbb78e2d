package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseModelReply turns the model's text reply into a Record. Markdown code fences
// are stripped before decoding.
func ParseModelReply(text string) (Record, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Color           string   `json:"color"`
		Consistency     string   `json:"consistency"`
		Shape           string   `json:"shape"`
		HealthScore     *float64 `json:"health_score"`
		Concerns        []string `json:"concerns"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	var missing []string
	if strings.TrimSpace(raw.Color) == "" {
		missing = append(missing, "color")
	}
	if strings.TrimSpace(raw.Consistency) == "" {
		missing = append(missing, "consistency")
	}
	if strings.TrimSpace(raw.Shape) == "" {
		missing = append(missing, "shape")
	}
	if raw.HealthScore == nil {
		missing = append(missing, "health_score")
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("%w: missing %s", ErrInvalidReply, strings.Join(missing, ", "))
	}

	rec := Record{
		Color:           raw.Color,
		Consistency:     raw.Consistency,
		Shape:           raw.Shape,
		HealthScore:     *raw.HealthScore,
		Concerns:        raw.Concerns,
		Recommendations: raw.Recommendations,
	}
	return rec.normalized(), nil
}

// normalized replaces nil slices so they encode as [] instead of null
func (r Record) normalized() Record {
	if r.Concerns == nil {
		r.Concerns = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	return r
}
