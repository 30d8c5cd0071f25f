package chat

import (
	"strings"
	"testing"
	"time"

	"plantquest/models"
)

func TestPersonaContext(t *testing.T) {
	watered := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	plant := &models.Plant{
		Species:      "Ocimum basilicum",
		CommonName:   "Basil",
		HealthStatus: models.HealthDiseased,
		HealthScore:  5.0,
		AddedBy:      "user_1",
		LastWatered:  &watered,
		Diseases: []models.Disease{{
			Name:        "downy mildew",
			Probability: 0.7,
			Description: "white coating on leaves",
			Treatment:   map[string][]string{"biological": {"neem oil"}},
		}},
	}

	ctx := personaContext(plant)

	for _, want := range []string{
		"You are Basil, a plant of the species Ocimum basilicum.",
		"Health status: diseased",
		"Health score: 5.0/10",
		"Adopted by: not adopted yet",
		"Last watered: 2025-06-01 08:00 UTC",
		"Disease: downy mildew (probability 70%)",
		"Biological treatment: neem oil",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("persona context missing %q\ngot:\n%s", want, ctx)
		}
	}
}

func TestPersonaContextDefaults(t *testing.T) {
	ctx := personaContext(&models.Plant{Species: "Mentha spicata"})

	if !strings.Contains(ctx, "You are a plant, a plant of the species Mentha spicata.") {
		t.Errorf("missing fallback name in:\n%s", ctx)
	}
	if !strings.Contains(ctx, "Last watered: unknown") {
		t.Errorf("missing last-watered fallback in:\n%s", ctx)
	}
}
