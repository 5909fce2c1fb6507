package family

import (
	"log"

	"github.com/SafeTrack/ST-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "family"); err != nil {
		log.Fatal("Failed to ensure schema family: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &Child{}, &ParentChild{}, &TeacherChild{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
