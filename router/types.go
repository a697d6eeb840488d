package router

import (
	"context"

	"github.com/spektr-org/ekta/dataset"
)

// ============================================================================
// ROUTER — Free text → analysis decision
// ============================================================================
// Two variants share one interface:
//   Keyword — regex/substring matcher, deterministic, no I/O
//   Gemini  — asks the hosted model, falls back to Keyword on any failure
//
// Route never fails. A Decision always names a topic, a level and N.
// ============================================================================

// Router maps a user query to an analysis decision.
type Router interface {
	Route(ctx context.Context, query string) Decision
}

// TextGenerator is the model client the Gemini router calls.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Topics select the measure.
const (
	TopicAdult = "adult"
	TopicYouth = "youth"
	TopicTotal = "total"
)

// Router variants and Gemini response modes.
const (
	KindKeyword = "keyword"
	KindGemini  = "gemini"

	ModeDecision = "decision" // model returns a JSON decision object
	ModeLabels   = "labels"   // model returns catalogue analysis names
)

// Defaults applied when the query or the model leaves a field unset.
const (
	DefaultTopN       = 5
	MaxKeywordTopN    = 10
	MaxGeminiTopN     = 20
	DefaultGraphTitle = "Aadhaar Analytics Overview"
)

// Decision is the routed interpretation of one query.
type Decision struct {
	Topic        string   `json:"topic"`           // adult | youth | total
	Level        string   `json:"level"`           // state | district | pincode
	State        string   `json:"state,omitempty"` // optional state filter named in the query
	TopN         int      `json:"topN"`
	TopNExplicit bool     `json:"topNExplicit"` // N came from the query, not the default
	Title        string   `json:"title"`
	Dataset      string   `json:"dataset"`      // default | biometric | enrolment
	AnalysisType string   `json:"analysisType"` // enrolment | biometric | saturation
	Analyses     []string `json:"analyses,omitempty"`

	Source         string `json:"source"` // which router produced it
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// Measure returns the dataset measure for the decision's topic.
func (d Decision) Measure() string {
	return TopicMeasure(d.Topic)
}

// TopicMeasure maps a topic to its measure column.
func TopicMeasure(topic string) string {
	switch topic {
	case TopicAdult:
		return dataset.ColAge17Plus
	case TopicYouth:
		return dataset.ColAge5To17
	default:
		return dataset.ColTotal
	}
}

// TopicLabel returns the title word for a topic.
func TopicLabel(topic string) string {
	switch topic {
	case TopicAdult:
		return "Adult"
	case TopicYouth:
		return "Youth"
	default:
		return "Total"
	}
}

// Config selects and tunes the router.
type Config struct {
	Kind string // keyword | gemini
	Mode string // decision | labels (gemini only)
}
