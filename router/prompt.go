package router

import (
	"fmt"
	"strings"

	"github.com/spektr-org/ekta/schema"
)

// ============================================================================
// PROMPT BUILDER
// ============================================================================
// Prompt = fixed instruction preamble + optional data model + user query.
// Only column names and sample values are sent. Never raw rows.
// ============================================================================

const decisionPreamble = `You are an expert data analytics assistant for Aadhaar demographic analysis.

Your job:
- Understand the user query
- Convert it into structured analytics instructions

Return ONLY valid JSON. No explanation. No markdown.

JSON format:
{
  "dataset": "default | biometric | enrolment",
  "level": "state | district | pincode",
  "state": "state name or null",
  "age_group": "adult | youth | total",
  "top_n": number,
  "analysis_type": "enrolment | biometric | saturation",
  "graph_title": "clear human readable title"
}

Rules:
- If districts are mentioned → level = district
- If pincodes are mentioned → level = pincode
- If a state name is mentioned → include it
- If number missing → top_n = 5
- If age unclear → total
- Graph title must be meaningful
- If query mentions biometric → dataset = biometric
- If query mentions enrolment or enrollment → dataset = enrolment
- Otherwise → dataset = default
`

const labelsPreamble = `You are an expert data analytics assistant for Aadhaar demographic analysis.

Pick the analyses from the list below that answer the user query.

Return ONLY the matching analysis names, exactly as written, separated by commas.
No explanation. No numbering. No markdown.

ANALYSES:
`

// BuildDecisionPrompt returns the prompt for ModeDecision.
func BuildDecisionPrompt(query string, sch *schema.Config) string {
	var b strings.Builder
	b.WriteString("System instruction:\n")
	b.WriteString(decisionPreamble)
	if sch != nil {
		b.WriteString("\n")
		b.WriteString(buildDataModel(*sch))
	}
	b.WriteString("\nUser query:\n")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

// BuildLabelsPrompt returns the prompt for ModeLabels.
func BuildLabelsPrompt(query string) string {
	var b strings.Builder
	b.WriteString("System instruction:\n")
	b.WriteString(labelsPreamble)
	for _, a := range Catalogue {
		b.WriteString(fmt.Sprintf("- %s: %s\n", a.Name, a.Description))
	}
	b.WriteString("\nUser query:\n")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

func buildDataModel(sch schema.Config) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("DATA MODEL (%s, %d records):\n", sch.Name, sch.RecordCount))
	for _, d := range sch.Dimensions {
		b.WriteString(fmt.Sprintf("- \"%s\"", d.Key))
		if d.Parent != "" {
			b.WriteString(fmt.Sprintf(" (within %s)", d.Parent))
		}
		if len(d.SampleValues) > 0 {
			b.WriteString(fmt.Sprintf(" — values: [%s]", strings.Join(quotedValues(d.SampleValues), ", ")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func quotedValues(vals []string) []string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("\"%s\"", v)
	}
	return quoted
}
