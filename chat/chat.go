// Package chat lets a user talk to one of their plants. The assistant reads
// the plant record into a persona prompt and forwards the question to
// Gemini. It only ever reads plant state.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"plantquest/models"
)

const modelName = "gemini-2.0-flash-lite-001"

// PlantSource resolves plant records for the persona context.
type PlantSource interface {
	Plant(ctx context.Context, plantID string) (*models.Plant, error)
}

// Assistant answers questions in the voice of a plant.
type Assistant struct {
	client *genai.Client
	model  *genai.GenerativeModel
	plants PlantSource
}

// NewAssistant creates an assistant backed by the Gemini API.
func NewAssistant(ctx context.Context, apiKey string, plants PlantSource) (*Assistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Assistant{
		client: client,
		model:  client.GenerativeModel(modelName),
		plants: plants,
	}, nil
}

// Close releases the underlying API client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

// Ask answers question as the plant identified by plantID.
func (a *Assistant) Ask(ctx context.Context, plantID, question string) (string, error) {
	plant, err := a.plants.Plant(ctx, plantID)
	if err != nil {
		return "", err
	}

	prompt := personaContext(plant) + "\n\nUser question: " + question
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return answer, nil
}

// personaContext renders the plant record into the system prompt.
func personaContext(p *models.Plant) string {
	name := p.CommonName
	if name == "" {
		name = "a plant"
	}
	adoptedBy := p.AdoptedBy
	if adoptedBy == "" {
		adoptedBy = "not adopted yet"
	}
	lastWatered := "unknown"
	if p.LastWatered != nil {
		lastWatered = p.LastWatered.Format("2006-01-02 15:04 MST")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a plant of the species %s.\n", name, p.Species)
	fmt.Fprintf(&sb, "Health status: %s\n", p.HealthStatus)
	fmt.Fprintf(&sb, "Health score: %.1f/10\n", p.HealthScore)
	fmt.Fprintf(&sb, "Added by: %s\n", p.AddedBy)
	fmt.Fprintf(&sb, "Adopted by: %s\n", adoptedBy)
	fmt.Fprintf(&sb, "Last watered: %s\n", lastWatered)

	for _, d := range p.Diseases {
		fmt.Fprintf(&sb, "\nDisease: %s (probability %.0f%%)\n", d.Name, d.Probability*100)
		if d.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", d.Description)
		}
		if bio := d.Treatment["biological"]; len(bio) > 0 {
			fmt.Fprintf(&sb, "Biological treatment: %s\n", strings.Join(bio, ", "))
		}
	}

	sb.WriteString("\nAnswer questions about your health, watering needs, diseases, ")
	sb.WriteString("who added or adopted you, and plant care in general. Stay in character.")
	return sb.String()
}
