// models.go
// Defines the core aggregates stored in Firestore: Plant, Quest, User, Photo.
// Cross-references are by ID; the quests / active_quests / quests_completed
// arrays are denormalized query caches maintained by the quest engine.

package models

import (
	"time"
)

// QuestType is the category of a recurring care task.
type QuestType string

const (
	QuestWaterPlant       QuestType = "Water Plant"
	QuestHealthAssessment QuestType = "Health Assessment"
	QuestGrowthReport     QuestType = "Growth Report"
	QuestPhotoSubmission  QuestType = "Photo Submission"
)

// QuestStatus is the lifecycle state of a quest. Completed is terminal.
type QuestStatus string

const (
	QuestPending   QuestStatus = "pending"
	QuestCompleted QuestStatus = "completed"
)

// HealthStatus is the assessed condition of a plant.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDiseased HealthStatus = "diseased"
	HealthUnknown  HealthStatus = "unknown"
)

// Location is a WGS84 coordinate pair in decimal degrees.
type Location struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// Disease is one disease candidate reported by the health assessment.
type Disease struct {
	Name        string              `firestore:"name" json:"name"`
	Probability float64             `firestore:"probability" json:"probability"`
	Description string              `firestore:"description" json:"description"`
	Treatment   map[string][]string `firestore:"treatment" json:"treatment,omitempty"`
}

// Plant is a registered, tracked plant.
//
// Quests caches the IDs of this plant's pending quests. It mirrors the
// authoritative Quest collection and is repaired by the reconciler when a
// denormalized update is lost.
type Plant struct {
	ID                   string       `firestore:"-" json:"id,omitempty"`
	Species              string       `firestore:"species" json:"species"`
	CommonName           string       `firestore:"common_name" json:"common_name"`
	Location             Location     `firestore:"location" json:"location"`
	HealthScore          float64      `firestore:"health_score" json:"health_score"`
	HealthStatus         HealthStatus `firestore:"health_status" json:"health_status"`
	LastWatered          *time.Time   `firestore:"last_watered" json:"last_watered"`
	LastHealthAssessment *time.Time   `firestore:"last_health_assessment" json:"last_health_assessment"`
	AdoptedBy            string       `firestore:"adopted_by" json:"adopted_by"`
	AddedBy              string       `firestore:"added_by" json:"added_by"`
	Quests               []string     `firestore:"quests" json:"quests"`
	Diseases             []Disease    `firestore:"diseases" json:"diseases"`
	// ImagePHash is the 8x8 average hash of the registration photo, used by
	// the duplicate guard. Stored as int64 because Firestore has no unsigned
	// integer type; only the bit pattern matters. Nil means no fingerprint
	// was ever stored (legacy document); zero is a valid hash of a uniform
	// photo.
	ImagePHash     *int64    `firestore:"image_phash" json:"-"`
	ImageBase64    string    `firestore:"image_base64" json:"-"`
	RegisteredDate time.Time `firestore:"registered_date,serverTimestamp" json:"registered_date"`
}

// ProofSubmission records the completion proof of a quest. Populated only
// once the quest is completed.
type ProofSubmission struct {
	Timestamp *time.Time `firestore:"timestamp" json:"timestamp"`
	Verified  bool       `firestore:"verified" json:"verified"`
}

// Quest is one recurring care task instance tied to a single plant.
type Quest struct {
	ID           string          `firestore:"-" json:"id,omitempty"`
	Type         QuestType       `firestore:"type" json:"type"`
	PlantID      string          `firestore:"plant_id" json:"plant_id"`
	AssignedTo   string          `firestore:"assigned_to" json:"assigned_to"`
	CreatedAt    time.Time       `firestore:"created_at" json:"created_at"`
	Status       QuestStatus     `firestore:"status" json:"status"`
	RewardPoints int64           `firestore:"reward_points" json:"reward_points"`
	Proof        ProofSubmission `firestore:"proof_submission" json:"proof_submission"`
}

// User is a registered user. ActiveQuests and QuestsCompleted are
// denormalized caches over the Quest collection; EcoPoints accumulates
// quest rewards plus the registration bonus.
type User struct {
	ID              string    `firestore:"-" json:"id,omitempty"`
	Name            string    `firestore:"name" json:"name"`
	Location        *Location `firestore:"location" json:"location"`
	AddedPlants     []string  `firestore:"added_plants" json:"added_plants"`
	AdoptedPlants   []string  `firestore:"adopted_plants" json:"adopted_plants"`
	ActiveQuests    []string  `firestore:"active_quests" json:"active_quests"`
	QuestsCompleted []string  `firestore:"quests_completed" json:"quests_completed"`
	EcoPoints       int64     `firestore:"eco_points" json:"eco_points"`
	CreatedAt       time.Time `firestore:"created_at,serverTimestamp" json:"created_at"`
}

// PhotoAnalysis is the identification summary stored with a photo.
type PhotoAnalysis struct {
	Species      string       `firestore:"species" json:"species"`
	HealthStatus HealthStatus `firestore:"health_status" json:"health_status"`
	Diseases     []Disease    `firestore:"diseases" json:"diseases"`
}

// Photo records a submitted plant photo and its analysis.
type Photo struct {
	ID        string        `firestore:"-" json:"id,omitempty"`
	UserID    string        `firestore:"user_id" json:"user_id"`
	PlantID   string        `firestore:"plant_id" json:"plant_id"`
	Analysis  PhotoAnalysis `firestore:"ai_analysis" json:"ai_analysis"`
	Timestamp time.Time     `firestore:"timestamp,serverTimestamp" json:"timestamp"`
}
