package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/spektr-org/ekta/config"
	"github.com/spektr-org/ekta/dashboard"
	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/export"
	"github.com/spektr-org/ekta/gemini"
	"github.com/spektr-org/ekta/history"
	"github.com/spektr-org/ekta/insight"
	"github.com/spektr-org/ekta/router"
	"github.com/spektr-org/ekta/schema"
)

// ============================================================================
// EKTA CLI — Aadhaar enrolment analytics
// ============================================================================

const version = "0.3.0"

const usage = `Ekta — Aadhaar enrolment analytics

Usage:
  ekta serve   [-addr :8080]
  ekta query   -q "top 5 states for adults" [-state Bihar] [-age youth] [-format table]
  ekta options [-state Bihar] [-district Patna]
  ekta models
  ekta history [-limit 20]
  ekta version

Global flags (before the command):
  -data PATH     Dataset path or s3://bucket/key (overrides EKTA_DATA_PATH)
  -env FILE      Env file to load (default .env)

Environment:
  EKTA_DATA_PATH, EKTA_ADDR, EKTA_ROUTER (keyword|gemini), EKTA_ROUTER_MODE
  (decision|labels), GEMINI_API_KEY, GEMINI_MODEL, GEMINI_TIMEOUT, EKTA_INSIGHTS,
  EKTA_CACHE_TTL, EKTA_HISTORY_PATH, EKTA_CORS_ORIGINS, AWS_REGION

Query formats:
  json      Full JSON response (default)
  pretty    Pretty-printed JSON
  text      Panel replies and insights
  csv       One CSV block per panel
  table     Terminal tables
  xlsx      Workbook with one sheet per panel (use -out)
`

func main() {
	global := flag.NewFlagSet("ekta", flag.ExitOnError)
	dataPath := global.String("data", "", "Dataset path (overrides EKTA_DATA_PATH)")
	envFile := global.String("env", ".env", "Env file to load")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(1)
	}
	cmd, rest := args[0], args[1:]

	if cmd == "version" || cmd == "-version" {
		fmt.Printf("ekta %s\n", version)
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fatalf("Config: %v", err)
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}

	ctx := context.Background()
	switch cmd {
	case "serve":
		runServe(ctx, cfg, rest)
	case "query":
		runQuery(ctx, cfg, rest)
	case "options":
		runOptions(ctx, cfg, rest)
	case "models":
		runModels(ctx, cfg)
	case "history":
		runHistory(ctx, cfg, rest)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		global.Usage()
		os.Exit(1)
	}
}

// ============================================================================
// WIRING
// ============================================================================

type app struct {
	svc     *dashboard.Service
	history *history.Store
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		log.Printf("⚠️ History close: %v", err)
	}
}

func newApp(ctx context.Context, cfg config.Config) *app {
	src := dataset.MultiSource{Local: dataset.FileSource{}}
	if strings.HasPrefix(cfg.DataPath, "s3://") {
		s3src, err := dataset.NewS3Source(ctx)
		if err != nil {
			fatalf("S3 source: %v", err)
		}
		src.S3 = s3src
	}
	cache := dataset.NewCache(src, cfg.CacheTTL)

	// The Gemini router's prompt lists dataset columns and sample values, so
	// the table is loaded before the router is built.
	table, err := cache.Get(ctx, cfg.DataPath)
	if err != nil {
		fatalf("Load dataset: %v", err)
	}
	sch := schema.Enrolment(table, 8)

	var client router.TextGenerator
	var insightClient insight.TextGenerator
	if cfg.HasGemini() {
		c := gemini.New(cfg.GeminiConfig())
		client = c
		if cfg.Insights {
			insightClient = c
		}
	}

	var gen *insight.Generator
	if cfg.Insights {
		gen = insight.New(insightClient, time.Hour)
	}

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			fatalf("History: %v", err)
		}
	}

	rt := router.New(cfg.RouterConfig(), client, &sch)
	log.Printf("🔧 Ekta: %d rows from %s, router=%s, insights=%t, history=%t",
		table.Len(), cfg.DataPath, cfg.Router, cfg.Insights, store != nil)

	return &app{
		svc: dashboard.NewService(dashboard.Options{
			Path:     cfg.DataPath,
			Cache:    cache,
			Router:   rt,
			Insights: gen,
			History:  store,
		}),
		history: store,
	}
}

// ============================================================================
// COMMANDS
// ============================================================================

func runServe(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "Listen address")
	fs.Parse(args)

	a := newApp(ctx, cfg)
	defer a.Close()

	srv := &http.Server{
		Handler:           dashboard.NewServer(a.svc, cfg.CORSOrigins).Handler(),
		Addr:              *addr,
		WriteTimeout:      60 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("🚀 Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("🛑 Shutdown signal received")
	case err := <-serverErrors:
		log.Printf("❌ Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	} else {
		log.Println("✅ Server stopped")
	}
}

func runQuery(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	queryStr := fs.String("q", "", "Natural language query (required)")
	states := fs.String("state", "", "Comma-separated state filter")
	districts := fs.String("district", "", "Comma-separated district filter")
	pincodes := fs.String("pincode", "", "Comma-separated pincode filter")
	age := fs.String("age", "", "Age group override: total, adult, youth")
	format := fs.String("format", "json", "Output format: json, pretty, text, csv, table, xlsx")
	outFile := fs.String("out", "", "Write output to file instead of stdout")
	fs.Parse(args)

	if *queryStr == "" && fs.NArg() > 0 {
		*queryStr = strings.Join(fs.Args(), " ")
	}
	if *queryStr == "" {
		fatalf("-q is required")
	}

	a := newApp(ctx, cfg)
	defer a.Close()

	resp, err := a.svc.Ask(ctx, dashboard.Request{
		Query:     *queryStr,
		States:    splitList(*states),
		Districts: splitList(*districts),
		Pincodes:  splitList(*pincodes),
		AgeGroup:  *age,
	})
	if err != nil {
		fatalf("Query failed: %v", err)
	}

	w, closeOut := output(*outFile)
	defer closeOut()

	switch *format {
	case "text":
		for _, p := range resp.Panels {
			fmt.Fprintf(w, "%s\n", p.Name)
			if p.Result.Reply != "" {
				fmt.Fprintln(w, p.Result.Reply)
			}
			if d := p.Result.Data; d != nil {
				fmt.Fprintf(w, "%s (%s)\n", d.Value, d.Period)
			}
			fmt.Fprintf(w, "%s\n\n", p.Insight.Text)
		}
	case "csv":
		for i, p := range resp.Panels {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := export.WriteCSV(w, p.Result); err != nil {
				fatalf("CSV: %v", err)
			}
		}
	case "table":
		for _, p := range resp.Panels {
			export.WriteTable(w, p.Result)
			color.New(color.FgYellow).Fprintln(w, p.Insight.Text)
			fmt.Fprintln(w)
		}
	case "xlsx":
		sheets := make([]export.Sheet, len(resp.Panels))
		for i, p := range resp.Panels {
			sheets[i] = export.Sheet{Name: p.Name, Result: p.Result}
		}
		if err := export.WriteXLSX(w, sheets); err != nil {
			fatalf("XLSX: %v", err)
		}
	default:
		writeJSON(w, resp, *format)
	}
	if *outFile != "" {
		log.Printf("📄 %s written to %s", *format, *outFile)
	}
}

func runOptions(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	states := fs.String("state", "", "Comma-separated selected states")
	districts := fs.String("district", "", "Comma-separated selected districts")
	fs.Parse(args)

	table, err := dataset.Load(ctx, sourceFor(ctx, cfg.DataPath), cfg.DataPath)
	if err != nil {
		fatalf("Load dataset: %v", err)
	}
	writeJSON(os.Stdout, dataset.Options(table, splitList(*states), splitList(*districts)), "pretty")
}

func runModels(ctx context.Context, cfg config.Config) {
	client := gemini.New(cfg.GeminiConfig())
	models, err := client.ListModels(ctx)
	if err != nil {
		fatalf("List models: %v", err)
	}
	color.Cyan("Models available to this key:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Display name", "Generate"})
	for _, m := range models {
		generate := "no"
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				generate = "yes"
			}
		}
		table.Append([]string{m.Name, m.DisplayName, generate})
	}
	table.Render()
}

func runHistory(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of entries")
	fs.Parse(args)

	if cfg.HistoryPath == "" {
		fatalf("EKTA_HISTORY_PATH is not set")
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		fatalf("History: %v", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, *limit)
	if err != nil {
		fatalf("History: %v", err)
	}
	if len(entries) == 0 {
		color.Yellow("No queries recorded yet.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Asked", "Query", "Router", "Topic", "Level", "N", "Panels"})
	for _, e := range entries {
		src := e.Source
		if e.Fallback {
			src += " (fallback)"
		}
		table.Append([]string{
			e.AskedAt.Local().Format("2006-01-02 15:04"),
			e.Query, src, e.Topic, e.Level,
			strconv.Itoa(e.TopN), strconv.Itoa(e.Panels),
		})
	}
	table.Render()
}

// ============================================================================
// HELPERS
// ============================================================================

func sourceFor(ctx context.Context, path string) dataset.Source {
	if !strings.HasPrefix(path, "s3://") {
		return dataset.FileSource{}
	}
	s3src, err := dataset.NewS3Source(ctx)
	if err != nil {
		fatalf("S3 source: %v", err)
	}
	return s3src
}

func output(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Failed to create output file: %v", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Printf("⚠️ Close %s: %v", path, err)
		}
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func writeJSON(w io.Writer, v any, format string) {
	var out []byte
	var err error
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
