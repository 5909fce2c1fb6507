package cases

import (
	"log"

	"github.com/SafeTrack/ST-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "cases"); err != nil {
		log.Fatal("Failed to ensure schema cases: ", err)
	}

	if err := db.DB.AutoMigrate(&MissingCase{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
