package schema

import (
	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/engine"
)

// ============================================================================
// SCHEMA — Describes the enrolment dataset for prompts and the CLI
// ============================================================================
// The router's Gemini prompt reads this metadata. The CLI builds it once at
// startup; sample values come from the loaded table and keys only list
// columns the table actually carries.
// ============================================================================

// Config describes the shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	Source      string `json:"source,omitempty"`
	RecordCount int    `json:"recordCount"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key            string   `json:"key"`
	DisplayName    string   `json:"displayName"`
	Description    string   `json:"description,omitempty"`
	SampleValues   []string `json:"sampleValues"`
	Groupable      bool     `json:"groupable"`
	Filterable     bool     `json:"filterable"`
	Parent         string   `json:"parent,omitempty"` // Parent dimension key for hierarchies
	IsTemporal     bool     `json:"isTemporal,omitempty"`
	TemporalFormat string   `json:"temporalFormat,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key"`
	DisplayName        string   `json:"displayName"`
	Description        string   `json:"description,omitempty"`
	IsSynthetic        bool     `json:"isSynthetic,omitempty"` // derived, not read from the file
	Aggregations       []string `json:"aggregations,omitempty"`
	DefaultAggregation string   `json:"defaultAggregation,omitempty"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
		Groupable:    true,
		Filterable:   true,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName string) MeasureMeta {
	return MeasureMeta{
		Key:                key,
		DisplayName:        displayName,
		Aggregations:       []string{"sum", "ratio"},
		DefaultAggregation: "sum",
	}
}

// Enrolment builds the schema of a loaded enrolment table. At most maxSamples
// values are listed per dimension (0 lists none).
func Enrolment(t *dataset.Table, maxSamples int) Config {
	cfg := Config{
		Name:        "Aadhaar Enrolment",
		Description: "Demographic Aadhaar enrolment counts by location and date",
		Source:      t.Path,
		RecordCount: t.Len(),
	}
	view := t.View()

	parents := map[string]string{
		dataset.ColDistrict: dataset.ColState,
		dataset.ColPincode:  dataset.ColDistrict,
	}
	for _, key := range dataset.Levels {
		if !t.Has(key) {
			continue
		}
		d := DefaultDimension(key, engine.LabelForDimension(key), samples(view, key, maxSamples))
		d.Parent = parents[key]
		cfg.Dimensions = append(cfg.Dimensions, d)
	}

	month := DefaultDimension(dataset.DimMonth, "Month", samples(view, dataset.DimMonth, maxSamples))
	month.IsTemporal = true
	month.TemporalFormat = engine.MonthLayout
	month.Description = "Enrolment month derived from the date column"
	cfg.Dimensions = append(cfg.Dimensions, month)

	for _, key := range []string{dataset.ColAge5To17, dataset.ColAge17Plus, dataset.ColTotal} {
		if !t.Has(key) {
			continue
		}
		m := DefaultMeasure(key, dataset.MeasureLabels[key])
		switch key {
		case dataset.ColAge5To17:
			m.Description = "Enrolments aged 5 to 17"
		case dataset.ColAge17Plus:
			m.Description = "Enrolments aged above 17"
		case dataset.ColTotal:
			m.Description = "Sum of both age brackets"
			m.IsSynthetic = true
		}
		cfg.Measures = append(cfg.Measures, m)
	}
	return cfg
}

func samples(view engine.RecordView, key string, max int) []string {
	if max <= 0 {
		return nil
	}
	values := engine.UniqueValues(view, key)
	if len(values) > max {
		values = values[:max]
	}
	return values
}

// GetDefaultMeasure returns the derived total when present, else the first
// measure's key.
func (c Config) GetDefaultMeasure() string {
	for _, m := range c.Measures {
		if m.Key == dataset.ColTotal {
			return m.Key
		}
	}
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return dataset.ColTotal
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}
