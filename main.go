package main

import (
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"

	_ "modernc.org/sqlite"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/config"
	"github.com/tesconnections/gateway/internal/gelf"
	"github.com/tesconnections/gateway/internal/handler"
	"github.com/tesconnections/gateway/internal/notify"
	"github.com/tesconnections/gateway/internal/router"
	"github.com/tesconnections/gateway/internal/schedule"
	"github.com/tesconnections/gateway/internal/service"
	"github.com/tesconnections/gateway/internal/session"
)

func main() {
	cfg := config.Load()

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	// Backend client
	client := backend.New(cfg.BackendURL, cfg.RequestTimeout, cfg.RetryAttempts, cfg.RetryDelay)
	log.Printf("Backend: %s (timeout %s, %d attempts)", cfg.BackendURL, cfg.RequestTimeout, cfg.RetryAttempts)

	// Session store: sqlite so the admin session survives restarts,
	// in-memory if the database cannot be opened.
	var store session.Store = session.NewMemoryStore()
	if db, err := sql.Open("sqlite", cfg.SessionDBPath); err != nil {
		log.Printf("Warning: session db open failed, sessions will not persist: %v", err)
	} else if err := session.InitDB(db); err != nil {
		log.Printf("Warning: session db init failed, sessions will not persist: %v", err)
		db.Close()
	} else {
		store = session.NewSQLiteStore(db)
		defer db.Close()
	}

	// A configured local PIN hash switches auth to dev mode: the PIN
	// is checked against the hash and the token minted locally.
	var verifier session.PinVerifier = client
	if cfg.LocalPINHash != "" {
		verifier = nil
		log.Printf("Auth: local PIN mode")
	}
	sessions := session.NewManager(verifier, store, cfg.LocalPINHash, []byte(cfg.LocalSecret))
	sessions.Restore()
	log.Printf("Session state: %s", sessions.State())

	// Meeting calendar
	calendar := schedule.NewCalendar(cfg.AvailableDates, cfg.BookedSlots)

	// Notification email
	var sender notify.Sender = notify.NoopSender{}
	if cfg.ResendAPIKey != "" && len(cfg.NotifyTo) > 0 {
		sender = notify.NewResendSender(cfg.ResendAPIKey, cfg.NotifyFrom, cfg.NotifyTo)
		log.Printf("Notifications: resend (%d recipients)", len(cfg.NotifyTo))
	} else {
		log.Printf("Notifications: disabled")
	}

	// Services
	intakeSvc := service.NewIntakeService(client, calendar, notify.New(sender))
	dashSvc := service.NewDashboardService(client, sessions, cfg.CacheTTL)

	// Handlers
	intakeH := handler.NewIntakeHandler(intakeSvc)
	authH := handler.NewAuthHandler(sessions)
	dashH := handler.NewDashboardHandler(dashSvc)

	// Router
	r := router.New(sessions, intakeH, authH, dashH)

	log.Printf("Gateway starting on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
