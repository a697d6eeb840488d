package router

import (
	"context"
	"errors"
	"log"

	"github.com/spektr-org/ekta/schema"
)

// Gemini routes through the hosted model. Any failure (no client, transport
// error, unusable answer) falls back to the keyword matcher; the returned
// decision is then marked Fallback.
type Gemini struct {
	client   TextGenerator
	mode     string
	schema   *schema.Config
	fallback Keyword
}

// NewGemini creates a Gemini router. mode is ModeDecision or ModeLabels;
// sch is optional context for decision prompts.
func NewGemini(client TextGenerator, mode string, sch *schema.Config) *Gemini {
	if mode != ModeLabels {
		mode = ModeDecision
	}
	return &Gemini{client: client, mode: mode, schema: sch}
}

// Route asks the model and never fails.
func (g *Gemini) Route(ctx context.Context, query string) Decision {
	d, err := g.route(ctx, query)
	if err != nil {
		log.Printf("⚠️ Router: Gemini failed, using keyword fallback: %v", err)
		d = g.fallback.Route(ctx, query)
		d.Fallback = true
		d.FallbackReason = err.Error()
		return d
	}
	log.Printf("✅ Router: gemini/%s topic=%s level=%s top_n=%d analyses=%d",
		g.mode, d.Topic, d.Level, d.TopN, len(d.Analyses))
	return d
}

func (g *Gemini) route(ctx context.Context, query string) (Decision, error) {
	if g.client == nil {
		return Decision{}, errors.New("no model client configured")
	}

	if g.mode == ModeLabels {
		response, err := g.client.Generate(ctx, BuildLabelsPrompt(query))
		if err != nil {
			return Decision{}, err
		}
		labels, err := ParseLabels(response)
		if err != nil {
			return Decision{}, err
		}
		// Keyword supplies N, topic and level for the chosen analyses.
		d := g.fallback.Route(ctx, query)
		d.Analyses = labels
		d.Source = KindGemini
		return d, nil
	}

	response, err := g.client.Generate(ctx, BuildDecisionPrompt(query, g.schema))
	if err != nil {
		return Decision{}, err
	}
	d, err := ParseDecision(response)
	if err != nil {
		return Decision{}, err
	}
	d.Source = KindGemini
	return d, nil
}

// New selects the router variant from configuration. The Gemini variant
// needs a client; without one the keyword matcher is used.
func New(cfg Config, client TextGenerator, sch *schema.Config) Router {
	if cfg.Kind != KindGemini {
		return Keyword{}
	}
	if client == nil {
		log.Printf("⚠️ Router: gemini requested without a client, using keyword matcher")
		return Keyword{}
	}
	return NewGemini(client, cfg.Mode, sch)
}
