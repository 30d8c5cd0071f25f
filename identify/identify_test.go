package identify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const identificationBody = `{
  "result": {
    "is_plant": {"binary": true},
    "classification": {
      "suggestions": [
        {"name": "Ocimum basilicum", "probability": 0.91,
         "details": {"common_names": ["Basil", "Sweet basil"], "url": "https://example.com/basil"}},
        {"name": "Ocimum tenuiflorum", "probability": 0.06, "details": {}}
      ]
    }
  }
}`

const healthBody = `{
  "result": {
    "is_healthy": {"binary": false},
    "disease": {
      "suggestions": [
        {"name": "leaf spot", "probability": 0.2, "details": {"description": "spots"}},
        {"name": "downy mildew", "probability": 0.7,
         "details": {"description": "white coating", "treatment": {"biological": ["neem oil"]}}},
        {"name": "rust", "probability": 0.4, "details": {"description": "orange pustules"}}
      ]
    }
  }
}`

func stubServer(t *testing.T, identification, health string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "test-key" {
			t.Errorf("missing Api-Key header")
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/identification"):
			w.Write([]byte(identification))
		case strings.HasPrefix(r.URL.Path, "/health_assessment"):
			w.Write([]byte(health))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAnalyze(t *testing.T) {
	srv := stubServer(t, identificationBody, healthBody)
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	analysis, err := client.Analyze(context.Background(), []byte("imagebytes"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !analysis.IsPlant {
		t.Fatal("IsPlant = false, want true")
	}
	if got := analysis.Species(); got != "Ocimum basilicum" {
		t.Errorf("Species() = %q, want Ocimum basilicum", got)
	}
	if got := analysis.CommonName(); got != "Basil" {
		t.Errorf("CommonName() = %q, want Basil", got)
	}
	if analysis.HealthStatus != "diseased" || analysis.HealthScore != 5.0 {
		t.Errorf("health = %s/%.1f, want diseased/5.0", analysis.HealthStatus, analysis.HealthScore)
	}

	// Top two diseases by probability.
	if len(analysis.Diseases) != 2 {
		t.Fatalf("kept %d diseases, want 2", len(analysis.Diseases))
	}
	if analysis.Diseases[0].Name != "downy mildew" || analysis.Diseases[1].Name != "rust" {
		t.Errorf("diseases = [%s, %s], want [downy mildew, rust]",
			analysis.Diseases[0].Name, analysis.Diseases[1].Name)
	}
	if analysis.Diseases[0].Treatment["biological"][0] != "neem oil" {
		t.Errorf("treatment = %v, want biological neem oil", analysis.Diseases[0].Treatment)
	}
}

func TestAnalyzeNotAPlant(t *testing.T) {
	srv := stubServer(t, `{"result": {"is_plant": {"binary": false}}}`, ``)
	defer srv.Close()

	analysis, err := NewClientWithBaseURL("test-key", srv.URL).Analyze(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.IsPlant {
		t.Error("IsPlant = true, want false")
	}
	if got := analysis.Species(); got != "Unknown" {
		t.Errorf("Species() = %q, want Unknown", got)
	}
}

func TestAnalyzeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewClientWithBaseURL("test-key", srv.URL).Analyze(context.Background(), []byte("x")); err == nil {
		t.Error("Analyze should surface the upstream failure")
	}
}
