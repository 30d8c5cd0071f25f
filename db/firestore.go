package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plantquest/models"
	"plantquest/quest"
)

const (
	plantsCollection = "Plants"
	questsCollection = "Quests"
	usersCollection  = "Users"
	photosCollection = "Photos"
)

// Firestore wraps the Firestore client. It implements quest.ReconcileStore
// and guard.Source on top of the raw collections.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore initializes a Firestore-backed store.
func NewFirestore(ctx context.Context, projectID, credentialsPath string) (*Firestore, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &Firestore{client: client}, nil
}

// Close closes the Firestore client.
func (db *Firestore) Close() error {
	return db.client.Close()
}

// newID builds an opaque document ID like plant_3fa91c02.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%.8s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// --- Plant operations ---

// CreatePlant stores a new plant and returns its generated ID.
func (db *Firestore) CreatePlant(ctx context.Context, plant *models.Plant) (string, error) {
	id := newID("plant")
	if _, err := db.client.Collection(plantsCollection).Doc(id).Set(ctx, plant); err != nil {
		return "", fmt.Errorf("failed to create plant: %w", err)
	}
	return id, nil
}

// Plant retrieves a plant by ID.
func (db *Firestore) Plant(ctx context.Context, plantID string) (*models.Plant, error) {
	doc, err := db.client.Collection(plantsCollection).Doc(plantID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, quest.ErrPlantNotFound
		}
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}

	var plant models.Plant
	if err := doc.DataTo(&plant); err != nil {
		return nil, fmt.Errorf("failed to parse plant: %w", err)
	}
	plant.ID = doc.Ref.ID
	return &plant, nil
}

// Plants retrieves all plants.
func (db *Firestore) Plants(ctx context.Context) ([]models.Plant, error) {
	iter := db.client.Collection(plantsCollection).Documents(ctx)
	defer iter.Stop()

	var plants []models.Plant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate plants: %w", err)
		}

		var plant models.Plant
		if err := doc.DataTo(&plant); err != nil {
			log.Printf("Warning: failed to parse plant %s: %v", doc.Ref.ID, err)
			continue
		}
		plant.ID = doc.Ref.ID
		plants = append(plants, plant)
	}

	return plants, nil
}

// PlantsInLatRange retrieves plants whose latitude falls inside the given
// range. This is the indexed pre-filter of the duplicate guard; the caller
// still applies the longitude bound and the exact distance test.
func (db *Firestore) PlantsInLatRange(ctx context.Context, minLat, maxLat float64) ([]models.Plant, error) {
	iter := db.client.Collection(plantsCollection).
		Where("location.lat", ">=", minLat).
		Where("location.lat", "<=", maxLat).
		Documents(ctx)
	defer iter.Stop()

	var plants []models.Plant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate plants: %w", err)
		}

		var plant models.Plant
		if err := doc.DataTo(&plant); err != nil {
			log.Printf("Warning: failed to parse plant %s: %v", doc.Ref.ID, err)
			continue
		}
		plant.ID = doc.Ref.ID
		plants = append(plants, plant)
	}

	return plants, nil
}

// AdoptPlant marks the plant adopted by the user and mirrors the plant into
// the user's adopted list.
func (db *Firestore) AdoptPlant(ctx context.Context, plantID, userID string) error {
	if _, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "adopted_by", Value: userID},
	}); err != nil {
		return fmt.Errorf("failed to set adopter on plant: %w", err)
	}
	if _, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "adopted_plants", Value: firestore.ArrayUnion(plantID)},
	}); err != nil {
		return fmt.Errorf("failed to add plant to adopted list: %w", err)
	}
	return nil
}

// AttachQuestToPlant adds a quest ID to the plant's quest cache (set-union).
func (db *Firestore) AttachQuestToPlant(ctx context.Context, plantID, questID string) error {
	_, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "quests", Value: firestore.ArrayUnion(questID)},
	})
	if err != nil {
		return fmt.Errorf("failed to attach quest to plant: %w", err)
	}
	return nil
}

// DetachQuestFromPlant removes a quest ID from the plant's quest cache
// (set-removal).
func (db *Firestore) DetachQuestFromPlant(ctx context.Context, plantID, questID string) error {
	_, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "quests", Value: firestore.ArrayRemove(questID)},
	})
	if err != nil {
		return fmt.Errorf("failed to detach quest from plant: %w", err)
	}
	return nil
}

// SetLastWatered records the most recent watering time.
func (db *Firestore) SetLastWatered(ctx context.Context, plantID string, at time.Time) error {
	_, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "last_watered", Value: at},
	})
	if err != nil {
		return fmt.Errorf("failed to set last_watered: %w", err)
	}
	return nil
}

// SetLastHealthAssessment records the most recent health assessment time.
func (db *Firestore) SetLastHealthAssessment(ctx context.Context, plantID string, at time.Time) error {
	_, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "last_health_assessment", Value: at},
	})
	if err != nil {
		return fmt.Errorf("failed to set last_health_assessment: %w", err)
	}
	return nil
}

// ReplacePlantQuests overwrites the plant's quest cache (reconciliation).
func (db *Firestore) ReplacePlantQuests(ctx context.Context, plantID string, questIDs []string) error {
	_, err := db.client.Collection(plantsCollection).Doc(plantID).Update(ctx, []firestore.Update{
		{Path: "quests", Value: questIDs},
	})
	if err != nil {
		return fmt.Errorf("failed to replace plant quest cache: %w", err)
	}
	return nil
}

// --- Quest operations ---

// CreateQuest stores a new quest and returns its generated ID.
func (db *Firestore) CreateQuest(ctx context.Context, q *models.Quest) (string, error) {
	id := newID("quest")
	if _, err := db.client.Collection(questsCollection).Doc(id).Set(ctx, q); err != nil {
		return "", fmt.Errorf("failed to create quest: %w", err)
	}
	return id, nil
}

// Quest retrieves a quest by ID.
func (db *Firestore) Quest(ctx context.Context, questID string) (*models.Quest, error) {
	doc, err := db.client.Collection(questsCollection).Doc(questID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, quest.ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	var q models.Quest
	if err := doc.DataTo(&q); err != nil {
		return nil, fmt.Errorf("failed to parse quest: %w", err)
	}
	q.ID = doc.Ref.ID
	return &q, nil
}

// Quests retrieves all quests.
func (db *Firestore) Quests(ctx context.Context) ([]models.Quest, error) {
	iter := db.client.Collection(questsCollection).Documents(ctx)
	defer iter.Stop()
	return db.collectQuests(iter)
}

// LatestQuest returns the most recently created quest of the given type for
// the plant, or nil when none exists.
func (db *Firestore) LatestQuest(ctx context.Context, plantID string, questType models.QuestType) (*models.Quest, error) {
	iter := db.client.Collection(questsCollection).
		Where("plant_id", "==", plantID).
		Where("type", "==", string(questType)).
		OrderBy("created_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest quest: %w", err)
	}

	var q models.Quest
	if err := doc.DataTo(&q); err != nil {
		return nil, fmt.Errorf("failed to parse quest: %w", err)
	}
	q.ID = doc.Ref.ID
	return &q, nil
}

// PendingQuestsForPlant retrieves the plant's pending quests.
func (db *Firestore) PendingQuestsForPlant(ctx context.Context, plantID string) ([]models.Quest, error) {
	iter := db.client.Collection(questsCollection).
		Where("plant_id", "==", plantID).
		Where("status", "==", string(models.QuestPending)).
		Documents(ctx)
	defer iter.Stop()
	return db.collectQuests(iter)
}

// QuestsByAssignee retrieves quests assigned to a user, filtered by status.
func (db *Firestore) QuestsByAssignee(ctx context.Context, userID string, questStatus models.QuestStatus) ([]models.Quest, error) {
	iter := db.client.Collection(questsCollection).
		Where("assigned_to", "==", userID).
		Where("status", "==", string(questStatus)).
		Documents(ctx)
	defer iter.Stop()
	return db.collectQuests(iter)
}

// MarkQuestCompleted flips the quest to completed and records the proof.
func (db *Firestore) MarkQuestCompleted(ctx context.Context, questID string, at time.Time) error {
	_, err := db.client.Collection(questsCollection).Doc(questID).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(models.QuestCompleted)},
		{Path: "proof_submission.timestamp", Value: at},
		{Path: "proof_submission.verified", Value: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark quest completed: %w", err)
	}
	return nil
}

func (db *Firestore) collectQuests(iter *firestore.DocumentIterator) ([]models.Quest, error) {
	var quests []models.Quest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate quests: %w", err)
		}

		var q models.Quest
		if err := doc.DataTo(&q); err != nil {
			log.Printf("Warning: failed to parse quest %s: %v", doc.Ref.ID, err)
			continue
		}
		q.ID = doc.Ref.ID
		quests = append(quests, q)
	}
	return quests, nil
}

// --- User operations ---

// CreateUser creates a new user document.
func (db *Firestore) CreateUser(ctx context.Context, userID string, user *models.User) error {
	if _, err := db.client.Collection(usersCollection).Doc(userID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// User retrieves a user by ID.
func (db *Firestore) User(ctx context.Context, userID string) (*models.User, error) {
	doc, err := db.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, quest.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

// Users retrieves all users.
func (db *Firestore) Users(ctx context.Context) ([]models.User, error) {
	iter := db.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		user.ID = doc.Ref.ID
		users = append(users, user)
	}

	return users, nil
}

// UpdateUserLocation stores the user's last reported location.
func (db *Firestore) UpdateUserLocation(ctx context.Context, userID string, loc models.Location) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "location", Value: loc},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return quest.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user location: %w", err)
	}
	return nil
}

// AddActiveQuest adds a quest to the user's active list (set-union).
func (db *Firestore) AddActiveQuest(ctx context.Context, userID, questID string) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "active_quests", Value: firestore.ArrayUnion(questID)},
	})
	if err != nil {
		return fmt.Errorf("failed to add active quest: %w", err)
	}
	return nil
}

// RemoveActiveQuest removes a quest from the user's active list (set-removal).
func (db *Firestore) RemoveActiveQuest(ctx context.Context, userID, questID string) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "active_quests", Value: firestore.ArrayRemove(questID)},
	})
	if err != nil {
		return fmt.Errorf("failed to remove active quest: %w", err)
	}
	return nil
}

// AwardQuestPoints records a completed quest on the user and increments the
// eco-point accumulator atomically. Re-applying is safe for the completed
// list (set-union); the increment relies on the caller's pending-status
// check for idempotence.
func (db *Firestore) AwardQuestPoints(ctx context.Context, userID, questID string, points int64) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "quests_completed", Value: firestore.ArrayUnion(questID)},
		{Path: "eco_points", Value: firestore.Increment(points)},
	})
	if err != nil {
		return fmt.Errorf("failed to award quest points: %w", err)
	}
	return nil
}

// AwardRegistrationBonus credits a user for registering a plant.
func (db *Firestore) AwardRegistrationBonus(ctx context.Context, userID, plantID string, points int64) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "added_plants", Value: firestore.ArrayUnion(plantID)},
		{Path: "eco_points", Value: firestore.Increment(points)},
	})
	if err != nil {
		return fmt.Errorf("failed to award registration bonus: %w", err)
	}
	return nil
}

// ReplaceUserQuestState overwrites the user's quest caches and point total
// (reconciliation).
func (db *Firestore) ReplaceUserQuestState(ctx context.Context, userID string, active, completed []string, ecoPoints int64) error {
	_, err := db.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "active_quests", Value: active},
		{Path: "quests_completed", Value: completed},
		{Path: "eco_points", Value: ecoPoints},
	})
	if err != nil {
		return fmt.Errorf("failed to replace user quest state: %w", err)
	}
	return nil
}

// --- Photo operations ---

// CreatePhoto stores a photo record and returns its generated ID.
func (db *Firestore) CreatePhoto(ctx context.Context, photo *models.Photo) (string, error) {
	id := newID("photo")
	if _, err := db.client.Collection(photosCollection).Doc(id).Set(ctx, photo); err != nil {
		return "", fmt.Errorf("failed to create photo: %w", err)
	}
	return id, nil
}
