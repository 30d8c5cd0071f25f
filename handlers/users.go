package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"plantquest/db"
	"plantquest/models"
	"plantquest/quest"
)

// UserHandler serves user registration, location updates, adoption, and the
// quest read/write entry points.
type UserHandler struct {
	db         *db.Firestore
	completion *quest.Completion
	finder     *quest.NearbyFinder
}

func NewUserHandler(store *db.Firestore, completion *quest.Completion, finder *quest.NearbyFinder) *UserHandler {
	return &UserHandler{
		db:         store,
		completion: completion,
		finder:     finder,
	}
}

type RegisterUserRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// RegisterUser creates a user with empty quest state.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	user := &models.User{
		Name:            req.Name,
		AddedPlants:     []string{},
		AdoptedPlants:   []string{},
		ActiveQuests:    []string{},
		QuestsCompleted: []string{},
	}
	if err := h.db.CreateUser(r.Context(), req.UserID, user); err != nil {
		log.Printf("❌ Failed to create user %s: %v", req.UserID, err)
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("User %s registered", req.UserID),
	})
}

type UpdateLocationRequest struct {
	UserID string   `json:"user_id"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

// UpdateLocation stores the user's last reported location.
func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Lat == nil || req.Lng == nil {
		writeError(w, "user_id, lat and lng are required", http.StatusBadRequest)
		return
	}

	err := h.db.UpdateUserLocation(r.Context(), req.UserID, models.Location{Lat: *req.Lat, Lng: *req.Lng})
	if errors.Is(err, quest.ErrUserNotFound) {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ Failed to update location for user %s: %v", req.UserID, err)
		writeError(w, "Failed to update location", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Location updated successfully"})
}

type AdoptRequest struct {
	UserID  string `json:"user_id"`
	PlantID string `json:"plant_id"`
}

// Adopt assigns a plant to a user. A plant already adopted by someone else
// cannot be re-adopted; unassignment is not modeled.
func (h *UserHandler) Adopt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AdoptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.PlantID == "" {
		writeError(w, "user_id and plant_id are required", http.StatusBadRequest)
		return
	}

	if _, err := h.db.User(r.Context(), req.UserID); err != nil {
		writeError(w, "Invalid user or plant ID", http.StatusNotFound)
		return
	}
	plant, err := h.db.Plant(r.Context(), req.PlantID)
	if err != nil {
		writeError(w, "Invalid user or plant ID", http.StatusNotFound)
		return
	}
	if plant.AdoptedBy != "" && plant.AdoptedBy != req.UserID {
		writeError(w, "Plant is already adopted", http.StatusConflict)
		return
	}

	if err := h.db.AdoptPlant(r.Context(), req.PlantID, req.UserID); err != nil {
		log.Printf("❌ Failed to adopt plant %s: %v", req.PlantID, err)
		writeError(w, "Failed to adopt plant", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Plant %s adopted by %s", req.PlantID, req.UserID),
	})
}

// Quests lists quests assigned to a user, filtered by status
// (default pending).
func (h *UserHandler) Quests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	questStatus := models.QuestStatus(r.URL.Query().Get("status"))
	if questStatus == "" {
		questStatus = models.QuestPending
	}
	if questStatus != models.QuestPending && questStatus != models.QuestCompleted {
		writeError(w, "status must be pending or completed", http.StatusBadRequest)
		return
	}

	quests, err := h.db.QuestsByAssignee(r.Context(), userID, questStatus)
	if err != nil {
		log.Printf("❌ Failed to list quests for user %s: %v", userID, err)
		writeError(w, "Failed to list quests", http.StatusInternalServerError)
		return
	}
	if quests == nil {
		quests = []models.Quest{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quests": quests})
}

// NearbyQuests lists pending quests on plants within the discovery radius of
// the user's stored location.
func (h *UserHandler) NearbyQuests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	quests, err := h.finder.Find(r.Context(), userID)
	switch {
	case errors.Is(err, quest.ErrUserNotFound):
		writeError(w, "User not found", http.StatusNotFound)
		return
	case errors.Is(err, quest.ErrUserLocationUnset):
		writeError(w, "User location not set", http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("❌ Nearby quest lookup failed for user %s: %v", userID, err)
		writeError(w, "Failed to find nearby quests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"nearby_quests": quests})
}

type CompleteQuestRequest struct {
	QuestID string `json:"quest_id"`
	UserID  string `json:"user_id"`
}

// CompleteQuest marks a quest completed and awards its points.
func (h *UserHandler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompleteQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QuestID == "" || req.UserID == "" {
		writeError(w, "quest_id and user_id are required", http.StatusBadRequest)
		return
	}

	reward, err := h.completion.Complete(r.Context(), req.QuestID, req.UserID, time.Now().UTC())
	switch {
	case errors.Is(err, quest.ErrQuestNotFound):
		writeError(w, "Quest not found", http.StatusNotFound)
		return
	case errors.Is(err, quest.ErrUserNotFound):
		writeError(w, "User not found", http.StatusNotFound)
		return
	case errors.Is(err, quest.ErrQuestNotPending):
		writeError(w, "Quest is already completed", http.StatusConflict)
		return
	case err != nil:
		log.Printf("❌ Failed to complete quest %s: %v", req.QuestID, err)
		writeError(w, "Failed to complete quest", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Quest %s marked as completed and %d points awarded", req.QuestID, reward),
		"reward_points": reward,
	})
}
