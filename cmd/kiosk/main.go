package main

import (
	"bufio"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceatt/internal/attendance"
	"faceatt/internal/config"
	"faceatt/internal/facerec"
	"faceatt/internal/gallery"
	"faceatt/internal/kiosk"
	"faceatt/internal/store"
)

// Kiosk runs the live recognition loop against a frame spool directory.
// Operator commands on stdin: i = mode IN, o = mode OUT, q = quit.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := attendance.NewRepository(db.Client)
	policy := attendance.NewPolicy(repo, cfg.ScanCooldown)

	galleryStore := gallery.NewStore(cfg.EncodingsFile)
	watcher := gallery.NewWatcher(galleryStore, gallery.DirLister(cfg.KnownFacesDir))
	log.Printf("gallery loaded: %d identities", watcher.Snapshot().Len())

	extractor, cleanup, err := newExtractor(ctx, cfg)
	if err != nil {
		log.Fatalf("extractor init failed: %v", err)
	}
	defer cleanup()

	loop := kiosk.New(watcher, extractor, policy, kiosk.LogFeedback{}, cfg.MatchThreshold)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("metrics on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics listener failed: %v", err)
			}
		}()
	}

	// Operator key handling, mirroring the kiosk keyboard controls.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
			case "i":
				loop.SetMode(attendance.ModeIn)
			case "o":
				loop.SetMode(attendance.ModeOut)
			case "q":
				cancel()
				return
			}
		}
	}()

	src := kiosk.NewDirSource(cfg.FramesDir, 100*time.Millisecond)

	log.Printf("kiosk started, mode %s", loop.Mode())
	if err := loop.Run(ctx, src); err != nil && err != context.Canceled {
		log.Fatalf("loop failed: %v", err)
	}
	log.Println("kiosk stopped")
}

func newExtractor(ctx context.Context, cfg config.App) (facerec.Extractor, func(), error) {
	if cfg.FaceBackend == "remote" {
		remote := facerec.NewRemote(cfg.FaceServiceURL)
		if err := remote.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
		}
		return remote, func() {}, nil
	}
	local, err := facerec.NewLocal(cfg.ModelsDir)
	if err != nil {
		return nil, nil, err
	}
	return local, local.Close, nil
}
