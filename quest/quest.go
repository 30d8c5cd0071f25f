// Package quest implements the quest lifecycle engine: the scheduler that
// decides when a new care quest is due for a plant, the completion path that
// keeps Quest, User, and Plant records mutually coherent, the nearby-quest
// finder, and the reconciler that repairs the denormalized caches.
//
// The Quest document is the single source of truth. The quests array on
// Plant and the active_quests / quests_completed arrays on User are advisory
// caches: a failed cache update is logged and never rolls back the
// authoritative write.
package quest

import (
	"context"
	"time"

	"plantquest/models"
)

const (
	// RewardPoints is the fixed reward per quest.
	RewardPoints int64 = 50
	// RegistrationPoints is the bonus for registering a new plant.
	RegistrationPoints int64 = 100
	// NearbyRadiusMeters bounds quest discovery around the user, boundary
	// inclusive.
	NearbyRadiusMeters = 500.0
)

// RecurrenceWindows is the minimum time between successive quests of the
// same type for the same plant.
var RecurrenceWindows = map[models.QuestType]time.Duration{
	models.QuestWaterPlant:       24 * time.Hour,
	models.QuestHealthAssessment: 72 * time.Hour,
	models.QuestGrowthReport:     72 * time.Hour,
	models.QuestPhotoSubmission:  7 * 24 * time.Hour,
}

// questTypeOrder fixes the iteration order of the recurrence table so
// scheduler runs are deterministic.
var questTypeOrder = []models.QuestType{
	models.QuestWaterPlant,
	models.QuestHealthAssessment,
	models.QuestGrowthReport,
	models.QuestPhotoSubmission,
}

// Store is the document-store surface the engine consumes. Array mutations
// (Attach/Detach, Add/Remove) are set-union and set-removal, and
// AwardQuestPoints combines a set-union with an atomic increment, so a
// reconciliation retry can re-apply them without double effects.
type Store interface {
	Plant(ctx context.Context, plantID string) (*models.Plant, error)
	Plants(ctx context.Context) ([]models.Plant, error)
	User(ctx context.Context, userID string) (*models.User, error)
	Quest(ctx context.Context, questID string) (*models.Quest, error)

	// LatestQuest returns the most recently created quest of the given type
	// for the plant, ordered by creation time descending, or nil when none
	// exists. Equal timestamps may resolve either way.
	LatestQuest(ctx context.Context, plantID string, questType models.QuestType) (*models.Quest, error)
	PendingQuestsForPlant(ctx context.Context, plantID string) ([]models.Quest, error)
	CreateQuest(ctx context.Context, q *models.Quest) (string, error)

	AttachQuestToPlant(ctx context.Context, plantID, questID string) error
	DetachQuestFromPlant(ctx context.Context, plantID, questID string) error
	AddActiveQuest(ctx context.Context, userID, questID string) error
	RemoveActiveQuest(ctx context.Context, userID, questID string) error

	// MarkQuestCompleted flips the quest to completed and records the proof
	// submission. This is the durability anchor of completion.
	MarkQuestCompleted(ctx context.Context, questID string, at time.Time) error
	AwardQuestPoints(ctx context.Context, userID, questID string, points int64) error
	SetLastWatered(ctx context.Context, plantID string, at time.Time) error
	SetLastHealthAssessment(ctx context.Context, plantID string, at time.Time) error
}

// ReconcileStore extends Store with the bulk reads and cache rewrites the
// reconciler needs.
type ReconcileStore interface {
	Store

	Quests(ctx context.Context) ([]models.Quest, error)
	Users(ctx context.Context) ([]models.User, error)
	ReplacePlantQuests(ctx context.Context, plantID string, questIDs []string) error
	ReplaceUserQuestState(ctx context.Context, userID string, active, completed []string, ecoPoints int64) error
}
