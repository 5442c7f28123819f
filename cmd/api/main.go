package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herd-tracker-go/internal/config"
	"herd-tracker-go/internal/discogs"
	"herd-tracker-go/internal/handlers"
	"herd-tracker-go/internal/logger"
	"herd-tracker-go/internal/setlistfm"
	"herd-tracker-go/internal/store"
	"herd-tracker-go/internal/youtube"
)

func main() {
	cfg := config.Load()

	log := logger.New()
	log.WithField("service", "herd-tracker-go").Info("starting service")

	if cfg.SetlistFMKey == "" {
		log.Warn("SETLIST_FM_API_KEY not set; concert search will be rejected upstream")
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("store init failed")
	}
	defer st.Close()
	log.WithField("db_path", cfg.DBPath).Info("store ready")

	h := handlers.New(
		cfg,
		log,
		st,
		setlistfm.New(cfg.SetlistFMKey, cfg.SearchTimeout, cfg.SearchCacheTTL),
		discogs.New(cfg.DiscogsUserAgent, cfg.SearchTimeout, cfg.SearchCacheTTL),
		youtube.New(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTubeRedirectURI),
	)

	cors := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", cors(h.Health))

	mux.HandleFunc("/api/concerts/search", cors(h.SearchConcerts))
	mux.HandleFunc("/api/vinyl/search", cors(h.SearchVinyl))

	mux.HandleFunc("/api/streaming/import", cors(h.ImportStreaming))
	mux.HandleFunc("/api/streaming/stats", cors(h.GetStreamingStats))
	mux.HandleFunc("/api/youtube/takeout", cors(h.ImportTakeout))
	mux.HandleFunc("/api/stats/export", cors(h.ExportStats))

	mux.HandleFunc("/api/auth/youtube", cors(h.ConnectYouTube))
	mux.HandleFunc("/api/auth/youtube/callback", h.YouTubeCallback)
	mux.HandleFunc("/api/youtube/sync", cors(h.SyncYouTube))
	mux.HandleFunc("/api/youtube/library", cors(h.YouTubeLibrary))

	mux.HandleFunc("/api/profile", cors(h.Profile))
	mux.HandleFunc("/api/profile/public", cors(h.PublicProfile))
	mux.HandleFunc("/api/concerts", cors(h.Concerts))
	mux.HandleFunc("/api/vinyl", cors(h.Vinyl))
	mux.HandleFunc("/api/merch", cors(h.Merch))
	mux.HandleFunc("/api/curate", cors(h.Curate))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
