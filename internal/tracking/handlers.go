package tracking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
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

func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// UpdateLocationHandler receives one device report and runs it through the
// ingestion pipeline. Response contract:
//
//	200 {"success":true,"message":"Location updated successfully","inside_geofence":bool}
//	400 {"error":"Missing required field: ..."} (and other validation errors)
//	404 {"error":"Device not found"}
//	500 {"error":"Database error"}
func UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := Svc.UpdateLocation(r.Context(), req)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, ErrDeviceNotFound):
			writeError(w, http.StatusNotFound, "Device not found")
		default:
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Location updated successfully",
		"inside_geofence": result.InsideGeofence,
	})
}

// HistoryHandler returns a child's location samples, newest first.
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseUint(chi.URLParam(r, "child_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child id")
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 1000 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}

	var samples []LocationSample
	if err := db.DB.WithContext(r.Context()).
		Where("child_id = ?", childID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&samples).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, samples)
}

// LatestLocationHandler returns the child's most recent sample.
func LatestLocationHandler(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseUint(chi.URLParam(r, "child_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child id")
		return
	}

	var sample LocationSample
	if err := db.DB.WithContext(r.Context()).
		Where("child_id = ?", childID).
		Order("timestamp DESC, id DESC").
		First(&sample).Error; err != nil {
		writeError(w, http.StatusNotFound, "No location recorded")
		return
	}

	writeJSON(w, http.StatusOK, sample)
}

// AlertsHandler returns a child's alerts within a lookback window
// (default 24 hours, the dashboard's "recent alerts" view).
func AlertsHandler(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseUint(chi.URLParam(r, "child_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child id")
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		hours, err = strconv.Atoi(hoursStr)
		if err != nil || hours < 1 || hours > 24*30 {
			writeError(w, http.StatusBadRequest, "Invalid hours")
			return
		}
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var alerts []Alert
	if err := db.DB.WithContext(r.Context()).
		Where("child_id = ? AND created_at >= ?", childID, since).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}
