// Package identify is the adapter for the plant identification and health
// assessment service (Kindwise-compatible API). Failures here are upstream
// errors: they surface to the caller and are never retried or turned into a
// silent accept.
package identify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"plantquest/models"
)

const (
	defaultBaseURL = "https://plant.id/api/v3"
	// maxDiseases caps how many disease candidates are kept, best first.
	maxDiseases = 2

	healthyScore  = 9.0
	diseasedScore = 5.0
)

// Suggestion is one species candidate.
type Suggestion struct {
	Name        string   `json:"name"`
	Probability float64  `json:"probability"`
	CommonNames []string `json:"common_names"`
	URL         string   `json:"url"`
}

// Analysis is the combined identification and health verdict for one image.
type Analysis struct {
	IsPlant      bool                `json:"is_plant"`
	Suggestions  []Suggestion        `json:"suggestions"`
	HealthStatus models.HealthStatus `json:"health_status"`
	HealthScore  float64             `json:"health_score"`
	Diseases     []models.Disease    `json:"diseases"`
}

// Species returns the top species candidate, or "Unknown" when the service
// offered none.
func (a *Analysis) Species() string {
	if len(a.Suggestions) == 0 {
		return "Unknown"
	}
	return a.Suggestions[0].Name
}

// CommonName returns the top candidate's first common name, or "Unknown".
func (a *Analysis) CommonName() string {
	if len(a.Suggestions) == 0 || len(a.Suggestions[0].CommonNames) == 0 {
		return "Unknown"
	}
	return a.Suggestions[0].CommonNames[0]
}

// Client talks to the identification service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient returns a client authenticated with apiKey.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

// wire types for the vendor responses

type identifyResponse struct {
	Result struct {
		IsPlant struct {
			Binary bool `json:"binary"`
		} `json:"is_plant"`
		Classification struct {
			Suggestions []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
				Details     struct {
					CommonNames []string `json:"common_names"`
					URL         string   `json:"url"`
				} `json:"details"`
			} `json:"suggestions"`
		} `json:"classification"`
	} `json:"result"`
}

type healthResponse struct {
	Result struct {
		IsHealthy struct {
			Binary bool `json:"binary"`
		} `json:"is_healthy"`
		Disease struct {
			Suggestions []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
				Details     struct {
					Description string              `json:"description"`
					Treatment   map[string][]string `json:"treatment"`
				} `json:"details"`
			} `json:"suggestions"`
		} `json:"disease"`
	} `json:"result"`
}

// Analyze identifies the plant on the image and assesses its health. When
// the service reports the image is not a plant, Analyze returns an Analysis
// with IsPlant false and skips the health call.
func (c *Client) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	var ident identifyResponse
	if err := c.post(ctx, "/identification?details=common_names,url", image, &ident); err != nil {
		return nil, fmt.Errorf("identification request: %w", err)
	}
	if !ident.Result.IsPlant.Binary {
		return &Analysis{IsPlant: false}, nil
	}

	analysis := &Analysis{IsPlant: true}
	for _, s := range ident.Result.Classification.Suggestions {
		analysis.Suggestions = append(analysis.Suggestions, Suggestion{
			Name:        s.Name,
			Probability: s.Probability,
			CommonNames: s.Details.CommonNames,
			URL:         s.Details.URL,
		})
	}

	var health healthResponse
	if err := c.post(ctx, "/health_assessment?details=description,treatment", image, &health); err != nil {
		return nil, fmt.Errorf("health assessment request: %w", err)
	}

	if health.Result.IsHealthy.Binary {
		analysis.HealthStatus = models.HealthHealthy
		analysis.HealthScore = healthyScore
	} else {
		analysis.HealthStatus = models.HealthDiseased
		analysis.HealthScore = diseasedScore
	}

	for _, d := range health.Result.Disease.Suggestions {
		analysis.Diseases = append(analysis.Diseases, models.Disease{
			Name:        d.Name,
			Probability: d.Probability,
			Description: d.Details.Description,
			Treatment:   d.Details.Treatment,
		})
	}
	sort.SliceStable(analysis.Diseases, func(i, j int) bool {
		return analysis.Diseases[i].Probability > analysis.Diseases[j].Probability
	})
	if len(analysis.Diseases) > maxDiseases {
		analysis.Diseases = analysis.Diseases[:maxDiseases]
	}

	return analysis, nil
}

func (c *Client) post(ctx context.Context, path string, image []byte, out interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
