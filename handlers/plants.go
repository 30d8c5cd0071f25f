package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"plantquest/db"
	"plantquest/guard"
	"plantquest/identify"
	"plantquest/imaging"
	"plantquest/models"
	"plantquest/quest"
)

// PlantHandler serves plant registration, health checks, and the quest
// engine triggers.
type PlantHandler struct {
	db         *db.Firestore
	identifier *identify.Client
	guard      *guard.Guard
	scheduler  *quest.Scheduler
	reconciler *quest.Reconciler
}

func NewPlantHandler(store *db.Firestore, identifier *identify.Client, g *guard.Guard, scheduler *quest.Scheduler, reconciler *quest.Reconciler) *PlantHandler {
	return &PlantHandler{
		db:         store,
		identifier: identifier,
		guard:      g,
		scheduler:  scheduler,
		reconciler: reconciler,
	}
}

type RegisterPlantRequest struct {
	UserID      string   `json:"user_id"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	ImageBase64 string   `json:"image_base64"`
}

type RegisterPlantResponse struct {
	Success         bool              `json:"success"`
	PlantID         string            `json:"plant_id"`
	Message         string            `json:"message"`
	EcoPointsEarned int64             `json:"eco_points_earned"`
	Analysis        *identify.Analysis `json:"analysis"`
}

// RegisterPlant validates and registers a new plant: normalize the photo,
// identify the species, run the duplicate guard, then create the Plant,
// credit the registering user, and store the photo record. The Plant
// document is the authoritative write; the user credit and photo record are
// logged and left to reconciliation if they fail.
func (h *PlantHandler) RegisterPlant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterPlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Lat == nil || req.Lng == nil || req.ImageBase64 == "" {
		writeError(w, "user_id, lat, lng and image_base64 are required", http.StatusBadRequest)
		return
	}
	loc := models.Location{Lat: *req.Lat, Lng: *req.Lng}

	if _, err := h.db.User(r.Context(), req.UserID); err != nil {
		if errors.Is(err, quest.ErrUserNotFound) {
			writeError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to load user %s: %v", req.UserID, err)
		writeError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, "image_base64 is not valid base64", http.StatusBadRequest)
		return
	}
	photo, err := imaging.Normalize(raw)
	if err != nil {
		writeError(w, "Image could not be decoded", http.StatusBadRequest)
		return
	}

	analysis, err := h.identifier.Analyze(r.Context(), photo)
	if err != nil {
		log.Printf("❌ Identification service failed: %v", err)
		writeError(w, "Plant identification service unavailable", http.StatusBadGateway)
		return
	}
	if !analysis.IsPlant {
		writeError(w, "Image does not appear to be a plant", http.StatusBadRequest)
		return
	}
	species := analysis.Species()

	fingerprint, err := h.guard.Check(r.Context(), photo, species, loc)
	if err != nil {
		var dup *guard.DuplicateError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"success":          false,
				"error":            fmt.Sprintf("Duplicate plant detected nearby (Species: %s).", dup.Species),
				"matched_plant_id": dup.PlantID,
			})
			return
		}
		log.Printf("❌ Duplicate check failed: %v", err)
		writeError(w, "Duplicate check failed", http.StatusInternalServerError)
		return
	}

	storedHash := int64(fingerprint)
	plant := &models.Plant{
		Species:      species,
		CommonName:   analysis.CommonName(),
		Location:     loc,
		HealthScore:  analysis.HealthScore,
		HealthStatus: analysis.HealthStatus,
		AddedBy:      req.UserID,
		Quests:       []string{},
		Diseases:     analysis.Diseases,
		ImagePHash:   &storedHash,
		ImageBase64:  base64.StdEncoding.EncodeToString(photo),
	}
	plantID, err := h.db.CreatePlant(r.Context(), plant)
	if err != nil {
		log.Printf("❌ Failed to create plant: %v", err)
		writeError(w, "Failed to register plant", http.StatusInternalServerError)
		return
	}

	if err := h.db.AwardRegistrationBonus(r.Context(), req.UserID, plantID, quest.RegistrationPoints); err != nil {
		log.Printf("reconcile: award registration bonus to user %s for plant %s: %v", req.UserID, plantID, err)
	}

	if _, err := h.db.CreatePhoto(r.Context(), &models.Photo{
		UserID:  req.UserID,
		PlantID: plantID,
		Analysis: models.PhotoAnalysis{
			Species:      species,
			HealthStatus: analysis.HealthStatus,
			Diseases:     analysis.Diseases,
		},
	}); err != nil {
		log.Printf("⚠️  Failed to store photo record for plant %s: %v", plantID, err)
	}

	log.Printf("🌱 Registered plant %s (%s) by user %s", plantID, species, req.UserID)

	writeJSON(w, http.StatusCreated, RegisterPlantResponse{
		Success:         true,
		PlantID:         plantID,
		Message:         fmt.Sprintf("Plant %s (%s) successfully registered.", species, plant.CommonName),
		EcoPointsEarned: quest.RegistrationPoints,
		Analysis:        analysis,
	})
}

type CheckHealthRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// CheckHealth runs identification and health assessment on a photo without
// registering anything.
func (h *PlantHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CheckHealthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, "image_base64 is required", http.StatusBadRequest)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, "image_base64 is not valid base64", http.StatusBadRequest)
		return
	}

	analysis, err := h.identifier.Analyze(r.Context(), raw)
	if err != nil {
		log.Printf("❌ Identification service failed: %v", err)
		writeError(w, "Plant identification service unavailable", http.StatusBadGateway)
		return
	}
	if !analysis.IsPlant {
		writeError(w, "Image does not appear to be a plant", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"analysis": analysis,
	})
}

// GenerateQuests triggers one scheduler pass. It is invoked by a cron-style
// external trigger; the handler never schedules itself.
func (h *PlantHandler) GenerateQuests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	created, err := h.scheduler.RunOnce(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("❌ Scheduler run failed after creating %d quests: %v", len(created), err)
		writeError(w, "Quest generation failed", http.StatusInternalServerError)
		return
	}

	log.Printf("📋 Scheduler created %d quests", len(created))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "success",
		"quests_created": len(created),
		"quest_ids":      created,
	})
}

// Reconcile rebuilds the denormalized quest caches from the authoritative
// quest records.
func (h *PlantHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.reconciler.Repair(r.Context(), time.Now().UTC()); err != nil {
		log.Printf("❌ Reconciliation failed: %v", err)
		writeError(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
