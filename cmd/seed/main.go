package main

import (
	"flag"
	"log"

	"github.com/SafeTrack/ST-Backend/internal/cases"
	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/family"
	"github.com/SafeTrack/ST-Backend/internal/seeds"
	"github.com/SafeTrack/ST-Backend/internal/tracking"
	"github.com/joho/godotenv"

	// Import dispatchers to register them via init()
	_ "github.com/SafeTrack/ST-Backend/internal/notify/consolelog"
	_ "github.com/SafeTrack/ST-Backend/internal/notify/smslog"
)

func main() {
	file := flag.String("file", "seeds/fixtures.yaml", "YAML fixture file to load")
	flag.Parse()

	_ = godotenv.Load(".env.local")
	db.Connect()

	family.Init()
	cases.Init()
	tracking.Init()

	if err := seeds.SeedFromFile(*file); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
