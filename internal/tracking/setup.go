package tracking

import (
	"log"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/notify"
)

// Svc is the active ingestion service, wired against the database-backed
// collaborators in Init(). Tests swap in mock collaborators instead.
var Svc *Service

func Init() {
	if err := db.EnsureSchema(db.DB, "tracking"); err != nil {
		log.Fatal("Failed to ensure schema tracking: ", err)
	}

	if err := db.DB.AutoMigrate(&Geofence{}, &LocationSample{}, &Alert{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	cfg := notify.LoadFromEnv()
	dispatcher, err := notify.NewDispatcher(cfg)
	if err != nil {
		log.Printf("[tracking] WARNING: Failed to initialize %s dispatcher: %v", cfg.Provider, err)
		log.Printf("[tracking] Alert fan-out will be disabled")
		dispatcher = nil
	} else {
		log.Printf("[tracking] Initialized %s dispatcher", dispatcher.Name())
	}

	Svc = NewService(gormDirectory{}, gormGeofenceStore{}, gormLocationStore{}, dispatcher)
}
