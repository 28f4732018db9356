package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/finwise/notification-engine/internal/services"
	"github.com/finwise/notification-engine/pkg/logger"
	"github.com/finwise/notification-engine/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PreferenceHandler struct {
	Service *services.PreferenceService
}

func NewPreferenceHandler(service *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{Service: service}
}

// GET /preferences
func (h *PreferenceHandler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	prefs := h.Service.GetPreferences(r.Context(), userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prefs)
}

// PUT /preferences
func (h *PreferenceHandler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	// Decode over the defaults so omitted fields keep their default values.
	prefs := models.DefaultPreferences()
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid preferences payload", http.StatusBadRequest)
		return
	}

	if !h.Service.SavePreferences(r.Context(), userID, prefs) {
		http.Error(w, "Failed to save preferences", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Preferences saved"})
}

// PATCH /preferences/{category}/{key}
func (h *PreferenceHandler) PatchPreferenceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	var payload struct {
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.Service.UpdatePreference(r.Context(), userID, vars["category"], vars["key"], payload.Value) {
		http.Error(w, "Failed to update preference", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Preference updated"})
}

// requestUserID resolves the authenticated user's id or writes an error.
func requestUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		logger.Log.WithError(err).Warn("Malformed user id in token claims")
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return userID, true
}
