package sprout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPGeneratorRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPGenerator(HTTPGeneratorConfig{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}

func TestHTTPGeneratorSuccess(t *testing.T) {
	var body map[string]string
	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true,"assetUrl":"https://cdn.test/a.mp4"}`))
	}))
	defer srv.Close()

	g, err := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Generate(context.Background(), GenerationRequest{Prompt: "waves", Media: MediaVideo, Source: SourceGeneratedVideo})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.AssetURL != "https://cdn.test/a.mp4" {
		t.Errorf("AssetURL = %q", res.AssetURL)
	}
	if body["prompt"] != "waves" || body["type"] != "video" {
		t.Errorf("request body = %v", body)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", auth)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestHTTPGeneratorModelKind(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success":true,"assetUrl":"m.glb"}`))
	}))
	defer srv.Close()

	g, _ := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL})
	if _, err := g.Generate(context.Background(), GenerationRequest{Prompt: "robot", Source: SourceGeneratedModel}); err != nil {
		t.Fatal(err)
	}
	if body["type"] != "model" {
		t.Errorf("type = %q, want model", body["type"])
	}
}

func TestHTTPGeneratorNoAuthHeaderWithoutKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true,"assetUrl":"x"}`))
	}))
	defer srv.Close()

	g, _ := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL})
	_, _ = g.Generate(context.Background(), GenerationRequest{Prompt: "x"})
	if auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestHTTPGeneratorFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"non-200", http.StatusBadGateway, "upstream down", "status 502"},
		{"success false", http.StatusOK, `{"success":false,"error":"nsfw prompt"}`, "nsfw prompt"},
		{"no asset", http.StatusOK, `{"success":true}`, "no asset returned"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, _ := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL})
			_, err := g.Generate(context.Background(), GenerationRequest{Prompt: "x"})
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("err = %v, want ErrGenerationFailed", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestHTTPGeneratorBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	g, _ := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL})
	if _, err := g.Generate(context.Background(), GenerationRequest{Prompt: "x"}); err == nil {
		t.Error("expected error for a malformed reply")
	}
}

func TestHTTPGeneratorFeedsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"assetUrl":"https://cdn.test/fox.png"}`))
	}))
	defer srv.Close()

	g, _ := NewHTTPGenerator(HTTPGeneratorConfig{Endpoint: srv.URL})
	s, _ := newTestSession(SessionConfig{Generator: g})
	s.Submit(context.Background(), "draw a fox")
	outs, err := s.Wait(context.Background())
	if err != nil || len(outs) != 1 || outs[0].Err != nil {
		t.Fatalf("Wait = %+v, %v", outs, err)
	}
	if outs[0].Target.Node.AssetURL != "https://cdn.test/fox.png" {
		t.Errorf("AssetURL = %q", outs[0].Target.Node.AssetURL)
	}
}
