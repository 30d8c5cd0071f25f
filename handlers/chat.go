package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"plantquest/chat"
	"plantquest/quest"
)

// ChatHandler serves the talk-to-your-plant endpoint. The assistant is nil
// when no Gemini API key is configured.
type ChatHandler struct {
	assistant *chat.Assistant
}

func NewChatHandler(assistant *chat.Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

type PlantChatRequest struct {
	PlantID  string `json:"plant_id"`
	Question string `json:"question"`
}

// PlantChat answers a question in the voice of the given plant.
func (h *ChatHandler) PlantChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.assistant == nil {
		writeError(w, "Plant chat is not configured", http.StatusServiceUnavailable)
		return
	}

	var req PlantChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlantID == "" || req.Question == "" {
		writeError(w, "plant_id and question are required", http.StatusBadRequest)
		return
	}

	answer, err := h.assistant.Ask(r.Context(), req.PlantID, req.Question)
	if errors.Is(err, quest.ErrPlantNotFound) {
		writeError(w, "Plant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ Plant chat failed for plant %s: %v", req.PlantID, err)
		writeError(w, "Plant chat failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
