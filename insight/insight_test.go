package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spektr-org/ekta/engine"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
	prompt   string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.response, s.err
}

func sampleGroups() []engine.Group {
	return []engine.Group{
		{Key: "Uttar Pradesh", Value: 1234567},
		{Key: "Bihar", Value: 98000},
		{Key: "Kerala", Value: 5400},
		{Key: "Goa", Value: 300},
		{Key: "Delhi", Value: 200},
		{Key: "Sikkim", Value: 10},
	}
}

func TestGenerateEmptyData(t *testing.T) {
	stub := &stubGenerator{response: "Solution: x"}
	got := New(stub, time.Minute).Generate(context.Background(), nil, Context{})
	if got.Text != EmptyDataText || got.Source != SourceEmpty {
		t.Errorf("unexpected insight: %+v", got)
	}
	if stub.calls != 0 {
		t.Error("model must not be called without data")
	}
}

func TestGenerateStaticWithoutClient(t *testing.T) {
	g := New(nil, time.Minute)
	for topic, want := range staticInsights {
		got := g.Generate(context.Background(), sampleGroups(), Context{AgeGroup: topic})
		if got.Text != want || got.Source != SourceStatic {
			t.Errorf("%s: got %+v", topic, got)
		}
	}
	if Static("unknown") != staticInsights["total"] {
		t.Error("unknown age group should use the total advice")
	}
}

func TestGenerateModelAndCache(t *testing.T) {
	stub := &stubGenerator{response: "  Solution: Open camps in Uttar Pradesh.  "}
	g := New(stub, time.Minute)
	ic := Context{Level: "state", AgeGroup: "youth", State: "Uttar Pradesh", Question: "where to focus"}

	first := g.Generate(context.Background(), sampleGroups(), ic)
	if first.Source != SourceModel || first.Text != "Solution: Open camps in Uttar Pradesh." {
		t.Fatalf("unexpected insight: %+v", first)
	}
	second := g.Generate(context.Background(), sampleGroups(), ic)
	if second.Source != SourceCache || stub.calls != 1 {
		t.Errorf("second call should hit the cache: %+v after %d calls", second, stub.calls)
	}

	for _, want := range []string{"Solution:", "Question: where to focus", "State: Uttar Pradesh", "Uttar Pradesh: 1,234,567"} {
		if !strings.Contains(stub.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateFallbackOnError(t *testing.T) {
	for _, stub := range []*stubGenerator{{err: errors.New("boom")}, {response: "   "}} {
		got := New(stub, time.Minute).Generate(context.Background(), sampleGroups(), Context{})
		if got.Text != FallbackText || got.Source != SourceFallback {
			t.Errorf("unexpected insight: %+v", got)
		}
	}
}

func TestSummary(t *testing.T) {
	s := Summary(sampleGroups(), Context{Level: "district", AgeGroup: "adult", State: "Bihar"})
	lines := strings.Split(s, "\n")
	if lines[0] != "Top 5 district-level Aadhaar enrolment values in Bihar for adult population:" {
		t.Errorf("header: %q", lines[0])
	}
	if len(lines) != 6 {
		t.Errorf("expected header plus 5 lines, got %d", len(lines))
	}
	if lines[2] != "Bihar: 98,000" {
		t.Errorf("line: %q", lines[2])
	}

	pct := Summary([]engine.Group{{Key: "Goa", Label: "Goa", Value: 42.25}}, Context{Percent: true})
	if !strings.HasSuffix(pct, "Goa: 42.2%") && !strings.HasSuffix(pct, "Goa: 42.3%") {
		t.Errorf("percent summary: %q", pct)
	}
}
