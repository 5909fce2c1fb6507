package cases

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ReportCaseHandler opens a missing-child case.
func ReportCaseHandler(w http.ResponseWriter, r *http.Request) {
	var c MissingCase
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if c.ChildID == 0 {
		writeError(w, http.StatusBadRequest, "child_id is required")
		return
	}

	// The child must exist and be tracked.
	var exists int64
	if err := db.DB.Table("family.children").
		Where("id = ? AND status = 'active'", c.ChildID).
		Count(&exists).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists == 0 {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	c.Status = "active"
	c.ClosedAt = nil
	if err := db.DB.Create(&c).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to report case")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// ListCasesHandler returns cases, optionally filtered by child or status.
func ListCasesHandler(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&MissingCase{})

	if childID := r.URL.Query().Get("child_id"); childID != "" {
		query = query.Where("child_id = ?", childID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var cs []MissingCase
	if err := query.Order("created_at DESC").Find(&cs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch cases")
		return
	}

	writeJSON(w, http.StatusOK, cs)
}

// GetCaseHandler returns a single case.
func GetCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	var c MissingCase
	if err := db.DB.First(&c, "id = ?", caseID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Case not found")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// CloseCaseHandler resolves an open case.
func CloseCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	var c MissingCase
	if err := db.DB.First(&c, "id = ?", caseID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Case not found")
		return
	}
	if c.Status == "closed" {
		writeJSON(w, http.StatusOK, c)
		return
	}

	now := time.Now().UTC()
	if err := db.DB.Model(&c).Updates(map[string]any{
		"status":    "closed",
		"closed_at": now,
	}).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to close case")
		return
	}

	writeJSON(w, http.StatusOK, c)
}
