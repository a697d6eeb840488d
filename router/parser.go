package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/ekta/dataset"
)

// ============================================================================
// RESPONSE PARSER — Model text → Decision
// ============================================================================
// Every field is defaulted when missing or invalid. Only a response with no
// JSON object (decision mode) or no known label (labels mode) is an error.
// ============================================================================

var (
	errNoJSON   = errors.New("no JSON object in response")
	errNoLabels = errors.New("no known analysis labels in response")
)

// rawDecision mirrors the JSON the model is asked for. Values are decoded
// loosely because models return numbers as strings and nulls as "null".
type rawDecision struct {
	Dataset      any `json:"dataset"`
	Level        any `json:"level"`
	State        any `json:"state"`
	AgeGroup     any `json:"age_group"`
	Topic        any `json:"topic"`
	TopN         any `json:"top_n"`
	AnalysisType any `json:"analysis_type"`
	GraphTitle   any `json:"graph_title"`
}

// extractJSON returns the text from the first "{" to the last "}".
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return text[start : end+1], nil
}

// ParseDecision parses a decision-mode response.
func ParseDecision(response string) (Decision, error) {
	jsonText, err := extractJSON(response)
	if err != nil {
		return Decision{}, err
	}
	var raw rawDecision
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return Decision{}, fmt.Errorf("failed to parse decision: %w (response: %.200s)", err, jsonText)
	}
	return normalizeDecision(raw), nil
}

func normalizeDecision(raw rawDecision) Decision {
	d := Decision{
		Dataset:      oneOf(asString(raw.Dataset), "default", "default", "biometric", "enrolment"),
		Level:        oneOf(asString(raw.Level), dataset.ColState, dataset.ColState, dataset.ColDistrict, dataset.ColPincode),
		AnalysisType: oneOf(asString(raw.AnalysisType), "enrolment", "enrolment", "biometric", "saturation"),
		Title:        strings.TrimSpace(asString(raw.GraphTitle)),
		TopN:         DefaultTopN,
	}

	topic := asString(raw.AgeGroup)
	if topic == "" {
		topic = asString(raw.Topic)
	}
	d.Topic = oneOf(topic, TopicTotal, TopicAdult, TopicYouth, TopicTotal)

	if state := strings.TrimSpace(asString(raw.State)); state != "" {
		switch strings.ToLower(state) {
		case "null", "none", "all", "n/a":
		default:
			d.State = state
		}
	}

	if n, ok := asInt(raw.TopN); ok && n > 0 && n <= MaxGeminiTopN {
		d.TopN = n
		d.TopNExplicit = true
	}

	if d.Title == "" {
		d.Title = DefaultGraphTitle
	}
	return d
}

// ParseLabels parses a labels-mode response into known catalogue names.
// Unknown labels are discarded; duplicates are dropped.
func ParseLabels(response string) ([]string, error) {
	fields := strings.FieldsFunc(response, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	var labels []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimLeft(f, "-*•0123456789.) ")
		f = strings.Trim(f, "\"'`[] ")
		if a, ok := LookupAnalysis(f); ok {
			labels = append(labels, a.Name)
		}
	}
	labels = lo.Uniq(labels)
	if len(labels) == 0 {
		return nil, errNoLabels
	}
	return labels, nil
}

// ── Loose decoding ──────────────────────────────────────────────────────────

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// oneOf lower-cases v and returns it when allowed, else def.
func oneOf(v, def string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if lo.Contains(allowed, v) {
		return v
	}
	return def
}
