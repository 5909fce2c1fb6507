package family

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CreateUserHandler registers a guardian/teacher account. Login and sessions
// are handled by a separate gateway; this only maintains the directory the
// alert fan-out reads from.
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var user User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if user.Username == "" || user.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	switch user.Role {
	case "", "parent", "teacher", "admin":
	default:
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	// Check if username is taken
	var existing User
	if err := db.DB.First(&existing, "username = ?", user.Username).Error; err == nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error hashing password")
		return
	}
	user.HashedPassword = string(hashed)
	user.Password = ""
	user.FirstName = NormalizeName(user.FirstName)
	user.LastName = NormalizeName(user.LastName)

	if err := db.DB.Create(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// CreateChildHandler registers a new tracked child.
func CreateChildHandler(w http.ResponseWriter, r *http.Request) {
	var child Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if child.FirstName == "" || child.LastName == "" {
		writeError(w, http.StatusBadRequest, "First and last name are required")
		return
	}
	child.FirstName = NormalizeName(child.FirstName)
	child.LastName = NormalizeName(child.LastName)
	child.Status = "active"

	if err := db.DB.Create(&child).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register child")
		return
	}

	writeJSON(w, http.StatusCreated, child)
}

// GetChildHandler returns a single child record.
func GetChildHandler(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "child_id")

	var child Child
	if err := db.DB.First(&child, "id = ?", childID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	writeJSON(w, http.StatusOK, child)
}

// AssignDeviceHandler pairs a device with a child. Any other active child
// currently holding the device id loses it first, so the device -> child
// mapping stays unique among active children.
func AssignDeviceHandler(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "child_id")

	var input struct {
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	var child Child
	if err := db.DB.First(&child, "id = ?", childID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Child{}).
			Where("device_id = ? AND status = 'active' AND id <> ?", input.DeviceID, child.ID).
			Update("device_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&child).Update("device_id", input.DeviceID).Error
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign device")
		return
	}

	writeJSON(w, http.StatusOK, child)
}

// UnassignDeviceHandler clears a child's device pairing.
func UnassignDeviceHandler(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "child_id")

	var child Child
	if err := db.DB.First(&child, "id = ?", childID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	if err := db.DB.Model(&child).Update("device_id", nil).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unassign device")
		return
	}

	writeJSON(w, http.StatusOK, child)
}

// DeactivateChildHandler retires a child from tracking. The device pairing is
// cleared so the id can be reused.
func DeactivateChildHandler(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "child_id")

	var child Child
	if err := db.DB.First(&child, "id = ?", childID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	updates := map[string]any{"status": "inactive", "device_id": nil}
	if err := db.DB.Model(&child).Updates(updates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to deactivate child")
		return
	}

	writeJSON(w, http.StatusOK, child)
}

func linkHandler(w http.ResponseWriter, r *http.Request, role string) {
	childID, err := strconv.ParseUint(chi.URLParam(r, "child_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child id")
		return
	}

	var input struct {
		UserID uint `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var user User
	if err := db.DB.First(&user, "id = ?", input.UserID).Error; err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if user.Role != role {
		writeError(w, http.StatusBadRequest, "User is not a "+role)
		return
	}

	var child Child
	if err := db.DB.First(&child, "id = ?", childID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Child not found")
		return
	}

	var linkErr error
	switch role {
	case "parent":
		linkErr = db.DB.Exec(`
			INSERT INTO family.parent_child (parent_id, child_id)
			VALUES (?, ?) ON CONFLICT DO NOTHING
		`, user.ID, child.ID).Error
	case "teacher":
		linkErr = db.DB.Exec(`
			INSERT INTO family.teacher_child (teacher_id, child_id)
			VALUES (?, ?) ON CONFLICT DO NOTHING
		`, user.ID, child.ID).Error
	}
	if linkErr != nil {
		writeError(w, http.StatusInternalServerError, "Failed to link "+role)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LinkParentHandler links an active parent account to a child.
func LinkParentHandler(w http.ResponseWriter, r *http.Request) {
	linkHandler(w, r, "parent")
}

// LinkTeacherHandler links an active teacher account to a child.
func LinkTeacherHandler(w http.ResponseWriter, r *http.Request) {
	linkHandler(w, r, "teacher")
}

// ChildSummary is one row of the guardian children listing: the child plus
// its latest location, recent alert count and open case count.
type ChildSummary struct {
	ID             uint       `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	DeviceID       *string    `json:"device_id"`
	Status         string     `json:"status"`
	ActiveCases    int        `json:"active_cases"`
	RecentAlerts   int        `json:"recent_alerts"`
	LastSeen       *time.Time `json:"last_seen"`
	LastLatitude   *float64   `json:"last_latitude"`
	LastLongitude  *float64   `json:"last_longitude"`
	InsideSafeZone *bool      `json:"inside_safe_zone"`
}

// ListChildrenHandler returns the active children linked to a parent, each
// with its latest sample, 24h alert count and open case count.
func ListChildrenHandler(w http.ResponseWriter, r *http.Request) {
	parentID, err := strconv.ParseUint(r.URL.Query().Get("parent_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parent_id is required")
		return
	}

	rows, err := db.DB.WithContext(r.Context()).Raw(`
		SELECT c.id, c.first_name, c.last_name, c.device_id, c.status,
			(SELECT COUNT(*) FROM cases.missing_cases mc
				WHERE mc.child_id = c.id AND mc.status = 'active') AS active_cases,
			(SELECT COUNT(*) FROM tracking.alerts a
				WHERE a.child_id = c.id AND a.created_at >= NOW() - INTERVAL '24 hours') AS recent_alerts,
			ls.timestamp AS last_seen,
			ls.latitude AS last_latitude,
			ls.longitude AS last_longitude,
			ls.inside_geofence AS inside_safe_zone
		FROM family.children c
		JOIN family.parent_child pc ON c.id = pc.child_id
		LEFT JOIN LATERAL (
			SELECT lt.timestamp, lt.latitude, lt.longitude, lt.inside_geofence
			FROM tracking.location_samples lt
			WHERE lt.child_id = c.id
			ORDER BY lt.timestamp DESC, lt.id DESC
			LIMIT 1
		) ls ON TRUE
		WHERE pc.parent_id = ? AND c.status = 'active'
		ORDER BY c.first_name, c.last_name
	`, parentID).Rows()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch children")
		return
	}
	defer rows.Close()

	summaries := []ChildSummary{}
	for rows.Next() {
		var s ChildSummary
		if err := rows.Scan(
			&s.ID,
			&s.FirstName,
			&s.LastName,
			&s.DeviceID,
			&s.Status,
			&s.ActiveCases,
			&s.RecentAlerts,
			&s.LastSeen,
			&s.LastLatitude,
			&s.LastLongitude,
			&s.InsideSafeZone,
		); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to scan child summary")
			return
		}
		summaries = append(summaries, s)
	}

	writeJSON(w, http.StatusOK, summaries)
}
