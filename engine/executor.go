package engine

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// ============================================================================
// EXECUTOR — Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Validate measure / groupBy against the view's keys
//   2. Apply filters from QuerySpec → SubView
//   3. Group and aggregate
//   4. Dispatch to builder (chart + detail table, or table only)
//   5. Resolve reply template placeholders
//
// Execute never calls an external service. All computation is local.
// ============================================================================

// Errors returned when a QuerySpec references keys the view does not carry.
var (
	ErrUnknownMeasure   = errors.New("unknown measure")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
//
// Options:
//   - WithDefaultMeasure(key) — measure used when QuerySpec.Measure is empty
//   - WithMeasureLabels(map)  — display names for measures
//   - WithFormatter(fn)       — number formatting for display values
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if spec.Measure == "" {
		spec.Measure = cfg.DefaultMeasure
	}
	if view.Len() == 0 {
		return &Result{
			Success: true,
			Type:    "text",
			Title:   spec.Title,
			Reply:   "No data available to analyze.",
			Groups:  []Group{},
		}, nil
	}
	if err := validateKeys(spec, view); err != nil {
		return nil, err
	}

	log.Printf("🔧 Engine: %d records, intent=%s, visualize=%s, aggregation=%s, measure=%s, groupBy=%v",
		view.Len(), spec.Intent, spec.Visualize, spec.Aggregation, spec.Measure, spec.GroupBy)

	// 1. Apply filters → SubView
	filtered := ApplyFilters(view, spec.Filters)
	if filtered.Len() == 0 {
		return &Result{
			Success: true,
			Type:    "text",
			Title:   spec.Title,
			Reply:   "No records match your query filters. Try broadening your search.",
			Groups:  []Group{},
		}, nil
	}

	// 2. Group and aggregate
	agg := Aggregate{
		Measure:     spec.Measure,
		Denominator: spec.Denominator,
		Aggregation: spec.Aggregation,
		SortBy:      spec.SortBy,
		Limit:       spec.Limit,
	}
	if len(spec.GroupBy) > 0 {
		agg.GroupBy = spec.GroupBy[0]
	}
	groups := GroupAndAggregate(filtered, agg)

	// 3. Dispatch to builder
	result := &Result{
		Success: true,
		Title:   spec.Title,
		Groups:  groups,
	}

	switch spec.Intent {
	case "table":
		result.Type = "table"
		result.TableData = BuildTable(spec, groups, cfg)

	default:
		result.Type = "chart"
		result.ChartConfig = BuildChart(spec, groups, cfg)
		result.TableData = BuildTable(spec, groups, cfg)
		if result.ChartConfig == nil {
			result.Type = "text"
			result.Reply = "Not enough data to generate a chart."
			return result, nil
		}
	}

	// Month series carry the first-to-last change alongside the chart.
	if agg.GroupBy == "month" && spec.Aggregation != "ratio" {
		result.Data = BuildGrowthText(filtered, spec.Measure, cfg)
	}

	// 4. Resolve reply template placeholders
	result.Reply = ResolvePlaceholders(spec.Reply, groups, filtered, spec.Measure, cfg)

	return result, nil
}

func validateKeys(spec QuerySpec, view RecordView) error {
	if !containsKey(view.MeasureKeys(), spec.Measure) {
		return fmt.Errorf("%w: %q", ErrUnknownMeasure, spec.Measure)
	}
	if spec.Aggregation == "ratio" && !containsKey(view.MeasureKeys(), spec.Denominator) {
		return fmt.Errorf("%w: %q", ErrUnknownMeasure, spec.Denominator)
	}
	for _, dim := range spec.GroupBy {
		if !containsKey(view.DimensionKeys(), dim) {
			return fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
		}
	}
	return nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
//
// Supported: {total} {count} {period} {groups} {top_label} {top_value}
// {bottom_label} {bottom_value} {growth}.
func ResolvePlaceholders(template string, groups []Group, view RecordView, measure string, cfg *config) string {
	if cfg == nil {
		cfg = applyOptions(nil)
	}
	if template == "" {
		return buildDefaultReply(groups, view, measure, cfg)
	}

	replacements := map[string]string{
		"{total}":  cfg.Format(SumMeasure(view, measure)),
		"{count}":  FormatInt(view.Len()),
		"{period}": DerivePeriod(view),
		"{groups}": FormatInt(len(groups)),
	}
	if strings.Contains(template, "{growth}") {
		replacements["{growth}"] = growthPhrase(BuildGrowthText(view, measure, cfg))
	}

	if len(groups) > 0 {
		top, bottom := groups[0], groups[0]
		for _, g := range groups[1:] {
			if g.Value > top.Value {
				top = g
			}
			if g.Value < bottom.Value {
				bottom = g
			}
		}
		replacements["{top_label}"] = top.Label
		replacements["{top_value}"] = cfg.Format(top.Value)
		replacements["{bottom_label}"] = bottom.Label
		replacements["{bottom_value}"] = cfg.Format(bottom.Value)
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return stripUnresolvedPlaceholders(result)
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func buildDefaultReply(groups []Group, view RecordView, measure string, cfg *config) string {
	if view.Len() == 0 {
		return "No matching records found."
	}
	if len(groups) > 1 {
		return fmt.Sprintf("%s leads with %s across %s groups (%s records).",
			groups[0].Label, cfg.Format(groups[0].Value), FormatInt(len(groups)), FormatInt(view.Len()))
	}
	return fmt.Sprintf("Found %s records totalling %s.",
		FormatInt(view.Len()), cfg.Format(SumMeasure(view, measure)))
}

// growthPhrase renders a growth comparison for a reply sentence.
func growthPhrase(text *TextData) string {
	g := text.Growth
	if g == nil || g.Direction == "insufficient data" {
		return "could not be measured (one month of data)"
	}
	switch g.Direction {
	case "increased":
		return fmt.Sprintf("rose %.1f%% from %s to %s", g.ChangePercent, g.EarliestPeriod, g.LatestPeriod)
	case "decreased":
		return fmt.Sprintf("fell %.1f%% from %s to %s", -g.ChangePercent, g.EarliestPeriod, g.LatestPeriod)
	default:
		return fmt.Sprintf("held steady from %s to %s", g.EarliestPeriod, g.LatestPeriod)
	}
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
