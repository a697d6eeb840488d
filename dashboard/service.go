package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/engine"
	"github.com/spektr-org/ekta/history"
	"github.com/spektr-org/ekta/insight"
	"github.com/spektr-org/ekta/router"
)

// ============================================================================
// QUERY SERVICE — prompt + filters → panels
// ============================================================================
// Ask runs one dashboard interaction:
//   1. Load (or reuse) the dataset
//   2. Route the prompt to a decision
//   3. Apply the age-group override and filters
//   4. Execute one engine query per plan
//   5. Attach an insight to every panel
//   6. Log the query to history
// ============================================================================

// ErrEmptyQuery is returned when the prompt is blank.
var ErrEmptyQuery = errors.New("query is required")

// NoMatchText is the reply of a panel whose filters leave no rows.
const NoMatchText = "No records match your query filters. Try broadening your search."

// Request is one dashboard question.
type Request struct {
	Query     string   `json:"query"`
	States    []string `json:"states,omitempty"`
	Districts []string `json:"districts,omitempty"`
	Pincodes  []string `json:"pincodes,omitempty"`
	AgeGroup  string   `json:"ageGroup,omitempty"` // total | adult | youth; overrides the routed topic
}

// Panel is one rendered analysis.
type Panel struct {
	Name    string          `json:"name"`
	Topic   string          `json:"topic"`
	Level   string          `json:"level"`
	Result  *engine.Result  `json:"result"`
	Insight insight.Insight `json:"insight"`
	Error   string          `json:"error,omitempty"`
}

// DatasetInfo describes the table a response was computed from.
type DatasetInfo struct {
	Path     string            `json:"path"`
	Rows     int               `json:"rows"`
	LoadedAt time.Time         `json:"loadedAt"`
	Stats    dataset.LoadStats `json:"stats"`
}

// Response is the answer to a Request.
type Response struct {
	Query    string          `json:"query"`
	Decision router.Decision `json:"decision"`
	Filters  dataset.Filters `json:"filters"`
	Panels   []Panel         `json:"panels"`
	Dataset  DatasetInfo     `json:"dataset"`
	Duration time.Duration   `json:"durationNs"`
}

// Options configures a Service.
type Options struct {
	Path     string
	Cache    *dataset.Cache
	Router   router.Router
	Insights *insight.Generator // nil gives static insights
	History  *history.Store     // nil disables history
}

// Service answers dashboard requests. It is safe for concurrent use.
type Service struct {
	path     string
	cache    *dataset.Cache
	router   router.Router
	insights *insight.Generator
	history  *history.Store
}

// NewService creates a Service. Missing cache and router default to a file
// cache and the keyword router.
func NewService(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = dataset.NewCache(dataset.FileSource{}, 0)
	}
	if opts.Router == nil {
		opts.Router = router.Keyword{}
	}
	return &Service{
		path:     opts.Path,
		cache:    opts.Cache,
		router:   opts.Router,
		insights: opts.Insights,
		history:  opts.History,
	}
}

// Path returns the dataset location.
func (s *Service) Path() string { return s.path }

// Table returns the current dataset, loading it when needed.
func (s *Service) Table(ctx context.Context) (*dataset.Table, error) {
	t, err := s.cache.Get(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return t, nil
}

// Invalidate drops the cached dataset so the next request reloads it.
func (s *Service) Invalidate() {
	s.cache.Invalidate(s.path)
}

// History returns recent queries. It returns nil when history is disabled.
func (s *Service) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}

// Ask answers one request. Only a failed dataset load or a blank query is an
// error; model failures degrade to keyword routing and fallback insights.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	decision := s.router.Route(ctx, query)
	decision = applyAgeGroup(decision, req.AgeGroup)
	if decision.TopN <= 0 {
		decision.TopN = router.DefaultTopN
	}

	filters := dataset.Filters{
		States:    compact(req.States),
		Districts: compact(req.Districts),
		Pincodes:  compact(req.Pincodes),
	}
	// A state named in the prompt narrows the table only when the caller has
	// not picked states; engine filters OR values within a dimension.
	if len(filters.States) == 0 && decision.State != "" {
		filters.States = []string{decision.State}
	}
	stateLabel := strings.Join(filters.States, ", ")

	plans := decision.Plans()
	panels := make([]Panel, 0, len(plans))
	for _, plan := range plans {
		plan.Spec.Filters = filters.Engine()
		panel := Panel{Name: plan.Name, Topic: plan.Topic, Level: plan.Level}

		result, err := engine.Execute(plan.Spec, table.View(), engine.WithMeasureLabels(dataset.MeasureLabels))
		if err != nil {
			log.Printf("⚠️ Dashboard: panel %q failed: %v", plan.Name, err)
			panel.Error = err.Error()
			panel.Result = &engine.Result{Type: "text", Title: plan.Name, Reply: err.Error(), Groups: []engine.Group{}}
			panel.Insight = insight.Insight{Text: insight.EmptyDataText, Source: insight.SourceEmpty}
			panels = append(panels, panel)
			continue
		}
		if len(result.Groups) == 0 && table.Len() > 0 {
			result.Reply = NoMatchText
		}
		panel.Result = result
		panel.Insight = s.insights.Generate(ctx, result.Groups, insight.Context{
			Question: query,
			Title:    plan.Name,
			Level:    plan.Level,
			AgeGroup: plan.Topic,
			State:    stateLabel,
			Percent:  plan.Spec.Aggregation == "ratio",
		})
		panels = append(panels, panel)
	}

	resp := &Response{
		Query:    query,
		Decision: decision,
		Filters:  filters,
		Panels:   panels,
		Dataset: DatasetInfo{
			Path:     table.Path,
			Rows:     table.Len(),
			LoadedAt: table.LoadedAt,
			Stats:    table.Stats(),
		},
		Duration: time.Since(start),
	}
	log.Printf("📊 Dashboard: %q → %s/%s top %d, %d panel(s) in %v",
		query, decision.Topic, decision.Level, decision.TopN, len(panels), resp.Duration)

	s.record(ctx, resp)
	return resp, nil
}

func (s *Service) record(ctx context.Context, resp *Response) {
	if s.history == nil {
		return
	}
	_, err := s.history.Record(ctx, history.Entry{
		Query:    resp.Query,
		Source:   resp.Decision.Source,
		Fallback: resp.Decision.Fallback,
		Topic:    resp.Decision.Topic,
		Level:    resp.Decision.Level,
		TopN:     resp.Decision.TopN,
		Panels:   len(resp.Panels),
		Duration: resp.Duration,
	})
	if err != nil {
		log.Printf("⚠️ Dashboard: history write failed: %v", err)
	}
}

// applyAgeGroup replaces the routed topic with an explicit age-group choice.
// A generated title no longer matches the new topic, so it is cleared.
// Labelled analyses fix their own measures and keep the routed topic.
func applyAgeGroup(d router.Decision, ageGroup string) router.Decision {
	if len(d.Analyses) > 0 {
		return d
	}
	ageGroup = strings.ToLower(strings.TrimSpace(ageGroup))
	switch ageGroup {
	case router.TopicAdult, router.TopicYouth, router.TopicTotal:
	default:
		return d
	}
	if d.Topic != ageGroup {
		d.Topic = ageGroup
		d.Title = ""
	}
	return d
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
