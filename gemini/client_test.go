package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		_ = json.Unmarshal(body, &req)
		gotPrompt = req.Contents[0].Parts[0].Text
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  Solution:"},{"text":" open more centres. "}]}}]}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k-123", Model: "models/gemini-2.5-flash", Endpoint: srv.URL + "/"})
	out, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "Solution: open more centres." {
		t.Errorf("text: got %q", out)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotKey != "k-123" || gotPrompt != "hello" {
		t.Errorf("key %q prompt %q", gotKey, gotPrompt)
	}
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("key") {
		case "denied":
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":{"code":403,"message":"API key not valid"}}`)
		case "empty":
			io.WriteString(w, `{"candidates":[]}`)
		default:
			io.WriteString(w, `not json`)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	_, err := New(Config{APIKey: "denied", Endpoint: srv.URL}).Generate(ctx, "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 403 || apiErr.Message != "API key not valid" {
		t.Errorf("expected APIError 403, got %v", err)
	}

	if _, err := New(Config{APIKey: "empty", Endpoint: srv.URL}).Generate(ctx, "q"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}

	if _, err := New(Config{APIKey: "other", Endpoint: srv.URL}).Generate(ctx, "q"); err == nil {
		t.Error("expected parse error")
	}

	if _, err := New(Config{}).Generate(ctx, "q"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGenerateHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := New(Config{APIKey: "k", Endpoint: srv.URL}).Generate(ctx, "q"); err == nil {
		t.Fatal("expected error after context deadline")
	}
}

func TestListModelsFollowsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			io.WriteString(w, `{"models":[{"name":"models/gemini-2.5-flash"}],"nextPageToken":"p2"}`)
			return
		}
		io.WriteString(w, `{"models":[{"name":"models/gemini-2.5-pro"}]}`)
	}))
	defer srv.Close()

	models, err := New(Config{APIKey: "k", Endpoint: srv.URL}).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	var names []string
	for _, m := range models {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "models/gemini-2.5-flash,models/gemini-2.5-pro" {
		t.Errorf("models: %v", names)
	}
}
