package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	DefaultMeasure string            // measure key if QuerySpec.Measure is empty
	MeasureLabels  map[string]string // measure key → display name (chart Y axis, table headers)
	Format         func(float64) string
}

// WithDefaultMeasure sets the measure to aggregate when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		c.DefaultMeasure = measure
	}
}

// WithMeasureLabels sets display names for measure keys.
func WithMeasureLabels(labels map[string]string) Option {
	return func(c *config) {
		c.MeasureLabels = labels
	}
}

// WithFormatter replaces the number formatter used for display values.
func WithFormatter(fn func(float64) string) Option {
	return func(c *config) {
		if fn != nil {
			c.Format = fn
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Format: FormatNumber,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) measureLabel(measure string) string {
	if label, ok := c.MeasureLabels[measure]; ok && label != "" {
		return label
	}
	return LabelForDimension(measure)
}
