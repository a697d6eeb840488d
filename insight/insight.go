package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spektr-org/ekta/engine"
)

// ============================================================================
// INSIGHT — One paragraph of advice for a computed panel
// ============================================================================
// Order of precedence:
//   1. no data          → fixed "insufficient data" paragraph
//   2. model disabled   → static advice per age group
//   3. model answer     → cached by prompt
//   4. model failure    → generic fallback paragraph
// Model failures are never returned to the caller.
// ============================================================================

const systemPrompt = `You are an AI data analyst for Aadhaar enrolment analytics.

Your task:
- Understand the user's question and the data summary
- Give a clear, short solution based strictly on the data

Response format (MANDATORY):
Solution:
<3–4 concise sentences explaining what should be done and why>

Rules:
- Always start with the heading word "Solution:"
- Keep it short and actionable
- Avoid generic statements
- Base suggestions on the user's prompt and the data
- No bullet points, no extra headings
`

const (
	EmptyDataText = "The selected filters did not return sufficient data for meaningful analysis. " +
		"It is advisable to broaden the selection criteria or verify data availability " +
		"before drawing conclusions."

	FallbackText = "While the data indicates notable regional and demographic variation in Aadhaar " +
		"enrolment, further operational review and targeted planning are recommended to " +
		"address localized challenges."
)

var staticInsights = map[string]string{
	"adult": "Adult population is high → additional Aadhaar centres are required.",
	"youth": "Youth population is large → school and camp based enrolment will work best.",
	"total": "High Aadhaar volume → scaling resources is recommended.",
}

// Sources of an Insight.
const (
	SourceEmpty    = "empty"
	SourceStatic   = "static"
	SourceModel    = "gemini"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// TextGenerator is the model client.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Context describes the panel an insight is written for.
type Context struct {
	Question string
	Title    string
	Level    string // state | district | pincode | month
	AgeGroup string // adult | youth | total
	State    string
	Percent  bool // values are percentages
}

// Insight is the generated paragraph and where it came from.
type Insight struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Generator writes insights.
type Generator struct {
	client TextGenerator
	cache  *cache.Cache
}

// New creates a Generator. A nil client gives static insights only.
func New(client TextGenerator, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Generator{client: client, cache: cache.New(ttl, 2*ttl)}
}

// Generate returns an insight for groups. It never fails.
func (g *Generator) Generate(ctx context.Context, groups []engine.Group, ic Context) Insight {
	if len(groups) == 0 {
		return Insight{Text: EmptyDataText, Source: SourceEmpty}
	}
	if g == nil || g.client == nil {
		return Insight{Text: Static(ic.AgeGroup), Source: SourceStatic}
	}

	prompt := BuildPrompt(groups, ic)
	key := promptKey(prompt)
	if v, ok := g.cache.Get(key); ok {
		return Insight{Text: v.(string), Source: SourceCache}
	}

	text, err := g.client.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("⚠️ Insight: model call failed for %q: %v", ic.Title, err)
		return Insight{Text: FallbackText, Source: SourceFallback}
	}
	text = strings.TrimSpace(text)
	g.cache.SetDefault(key, text)
	return Insight{Text: text, Source: SourceModel}
}

// Static returns the fixed advice for an age group.
func Static(ageGroup string) string {
	if s, ok := staticInsights[ageGroup]; ok {
		return s
	}
	return staticInsights["total"]
}

// BuildPrompt assembles preamble, context and data summary.
func BuildPrompt(groups []engine.Group, ic Context) string {
	var b strings.Builder
	b.WriteString("System instruction:\n")
	b.WriteString(systemPrompt)
	b.WriteString("\nContext:\n")
	if ic.Question != "" {
		b.WriteString(fmt.Sprintf("Question: %s\n", ic.Question))
	}
	b.WriteString(fmt.Sprintf("Level: %s\n", orDefault(ic.Level, "state")))
	b.WriteString(fmt.Sprintf("Age group: %s\n", orDefault(ic.AgeGroup, "total")))
	if ic.State != "" {
		b.WriteString(fmt.Sprintf("State: %s\n", ic.State))
	}
	b.WriteString("\nData summary:\n")
	b.WriteString(Summary(groups, ic))
	b.WriteString("\n")
	return b.String()
}

var printer = message.NewPrinter(language.English)

// Summary lists the first five groups, e.g. "Bihar: 1,234,567".
func Summary(groups []engine.Group, ic Context) string {
	top := groups
	if len(top) > 5 {
		top = top[:5]
	}

	header := fmt.Sprintf("Top %d %s-level Aadhaar enrolment values", len(top), orDefault(ic.Level, "state"))
	if ic.State != "" {
		header += " in " + ic.State
	}
	header += fmt.Sprintf(" for %s population", orDefault(ic.AgeGroup, "total"))

	lines := make([]string, len(top))
	for i, grp := range top {
		label := grp.Label
		if label == "" {
			label = grp.Key
		}
		if ic.Percent {
			lines[i] = printer.Sprintf("%s: %.1f%%", label, grp.Value)
		} else {
			lines[i] = printer.Sprintf("%s: %d", label, int64(grp.Value))
		}
	}
	return header + ":\n" + strings.Join(lines, "\n")
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
