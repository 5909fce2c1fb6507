package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/SafeTrack/ST-Backend/internal/cases"
	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/family"
	"github.com/SafeTrack/ST-Backend/internal/middleware"
	"github.com/SafeTrack/ST-Backend/internal/tracking"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	// Import dispatchers to register them via init()
	_ "github.com/SafeTrack/ST-Backend/internal/notify/consolelog"
	_ "github.com/SafeTrack/ST-Backend/internal/notify/natspub"
	_ "github.com/SafeTrack/ST-Backend/internal/notify/smslog"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	family.Init()
	cases.Init()
	tracking.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Get("/", RootHandler)

	// Device reports get a per-device rate cap; one report every couple of
	// seconds is plenty for a phone in a backpack.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(rate.Limit(1), 5, middleware.RemoteAddrKey))
		r.Mount("/tracking", tracking.SetupRoutes())
	})

	r.Mount("/family", family.SetupRoutes())
	r.Mount("/cases", cases.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
