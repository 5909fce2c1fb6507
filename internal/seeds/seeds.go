package seeds

import (
	"fmt"
	"os"
	"time"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/family"
	"github.com/SafeTrack/ST-Backend/internal/tracking"
	"github.com/goccy/go-yaml"
	"golang.org/x/crypto/bcrypt"
)

// Fixture mirrors the YAML seed file layout.
type Fixture struct {
	Users []struct {
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Phone     string `yaml:"phone"`
		Role      string `yaml:"role"`
	} `yaml:"users"`

	Children []struct {
		FirstName   string   `yaml:"first_name"`
		LastName    string   `yaml:"last_name"`
		DateOfBirth string   `yaml:"date_of_birth"`
		DeviceID    string   `yaml:"device_id"`
		Parents     []string `yaml:"parents"`
		Teachers    []string `yaml:"teachers"`
	} `yaml:"children"`

	Geofence *struct {
		Name      string  `yaml:"name"`
		CenterLat float64 `yaml:"center_lat"`
		CenterLng float64 `yaml:"center_lng"`
		Radius    float64 `yaml:"radius"`
	} `yaml:"geofence"`
}

// SeedFromFile loads a YAML fixture and upserts users, children, guardian
// links and the safe-zone geofence. Existing usernames and device pairings
// are left alone so reseeding a dev database is safe.
func SeedFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	userIDs := make(map[string]uint)

	for _, u := range fx.Users {
		var existing family.User
		if err := db.DB.First(&existing, "username = ?", u.Username).Error; err == nil {
			userIDs[u.Username] = existing.ID
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}

		user := family.User{
			Username:       u.Username,
			HashedPassword: string(hashed),
			FirstName:      family.NormalizeName(u.FirstName),
			LastName:       family.NormalizeName(u.LastName),
			Phone:          u.Phone,
			Role:           u.Role,
			Status:         "active",
		}
		if err := db.DB.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		userIDs[u.Username] = user.ID
	}

	for _, c := range fx.Children {
		firstName := family.NormalizeName(c.FirstName)
		lastName := family.NormalizeName(c.LastName)

		var child family.Child
		err := db.DB.First(&child, "first_name = ? AND last_name = ?", firstName, lastName).Error
		if err != nil {
			child = family.Child{
				FirstName: firstName,
				LastName:  lastName,
				Status:    "active",
			}
			if c.DateOfBirth != "" {
				dob, err := time.Parse("2006-01-02", c.DateOfBirth)
				if err != nil {
					return fmt.Errorf("parse date_of_birth for %s %s: %w", firstName, lastName, err)
				}
				child.DateOfBirth = &dob
			}
			if c.DeviceID != "" {
				deviceID := c.DeviceID
				child.DeviceID = &deviceID
			}
			if err := db.DB.Create(&child).Error; err != nil {
				return fmt.Errorf("seed child %s %s: %w", firstName, lastName, err)
			}
		}

		for _, username := range c.Parents {
			parentID, ok := userIDs[username]
			if !ok {
				return fmt.Errorf("unknown parent %q for child %s %s", username, firstName, lastName)
			}
			if err := db.DB.Exec(`
				INSERT INTO family.parent_child (parent_id, child_id)
				VALUES (?, ?) ON CONFLICT DO NOTHING
			`, parentID, child.ID).Error; err != nil {
				return fmt.Errorf("link parent %s: %w", username, err)
			}
		}
		for _, username := range c.Teachers {
			teacherID, ok := userIDs[username]
			if !ok {
				return fmt.Errorf("unknown teacher %q for child %s %s", username, firstName, lastName)
			}
			if err := db.DB.Exec(`
				INSERT INTO family.teacher_child (teacher_id, child_id)
				VALUES (?, ?) ON CONFLICT DO NOTHING
			`, teacherID, child.ID).Error; err != nil {
				return fmt.Errorf("link teacher %s: %w", username, err)
			}
		}
	}

	if fx.Geofence != nil {
		var existing tracking.Geofence
		if err := db.DB.First(&existing, "name = ?", fx.Geofence.Name).Error; err != nil {
			fence := tracking.Geofence{
				Name:         fx.Geofence.Name,
				CenterLat:    fx.Geofence.CenterLat,
				CenterLng:    fx.Geofence.CenterLng,
				RadiusMeters: fx.Geofence.Radius,
				Status:       "active",
			}
			if err := db.DB.Create(&fence).Error; err != nil {
				return fmt.Errorf("seed geofence: %w", err)
			}
		}
	}

	return nil
}
