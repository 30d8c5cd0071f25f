package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"plantquest/config"
	"plantquest/db"
	"plantquest/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	store, err := db.NewFirestore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer store.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(ctx, store); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedPlants(ctx, store); err != nil {
		log.Fatalf("Failed to seed plants: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers(ctx context.Context, store *db.Firestore) error {
	users := []struct {
		ID   string
		User models.User
	}{
		{
			ID: "user-demo-anna",
			User: models.User{
				Name:            "Anna",
				Location:        &models.Location{Lat: -1.9441, Lng: 30.0619},
				AddedPlants:     []string{},
				AdoptedPlants:   []string{},
				ActiveQuests:    []string{},
				QuestsCompleted: []string{},
			},
		},
		{
			ID: "user-demo-ben",
			User: models.User{
				Name:            "Ben",
				AddedPlants:     []string{},
				AdoptedPlants:   []string{},
				ActiveQuests:    []string{},
				QuestsCompleted: []string{},
			},
		},
	}

	for _, u := range users {
		if err := store.CreateUser(ctx, u.ID, &u.User); err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.ID, err)
		}
		log.Printf("  ✓ Created user: %s", u.ID)
	}

	return nil
}

func seedPlants(ctx context.Context, store *db.Firestore) error {
	lastWatered := time.Now().UTC().Add(-48 * time.Hour)

	plants := []models.Plant{
		{
			Species:      "Mangifera indica",
			CommonName:   "Mango",
			Location:     models.Location{Lat: -1.9442, Lng: 30.0620},
			HealthScore:  9.0,
			HealthStatus: models.HealthHealthy,
			AddedBy:      "user-demo-anna",
			Quests:       []string{},
			Diseases:     []models.Disease{},
			LastWatered:  &lastWatered,
		},
		{
			Species:      "Persea americana",
			CommonName:   "Avocado",
			Location:     models.Location{Lat: -1.9500, Lng: 30.0700},
			HealthScore:  5.0,
			HealthStatus: models.HealthDiseased,
			AddedBy:      "user-demo-ben",
			Quests:       []string{},
			Diseases: []models.Disease{
				{
					Name:        "Anthracnose",
					Probability: 0.62,
					Description: "Fungal disease causing dark lesions on leaves and fruit.",
					Treatment: map[string][]string{
						"biological": {"Remove and destroy infected plant material", "Improve air circulation"},
					},
				},
			},
		},
	}

	for _, plant := range plants {
		id, err := store.CreatePlant(ctx, &plant)
		if err != nil {
			return fmt.Errorf("failed to create plant %s: %w", plant.Species, err)
		}
		if err := store.AwardRegistrationBonus(ctx, plant.AddedBy, id, 100); err != nil {
			return fmt.Errorf("failed to credit %s for plant %s: %w", plant.AddedBy, id, err)
		}
		log.Printf("  ✓ Created plant: %s (%s)", id, plant.CommonName)
	}

	return nil
}
