package main

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceatt/internal/attendance"
	"faceatt/internal/auth"
	"faceatt/internal/config"
	"faceatt/internal/facerec"
	"faceatt/internal/gallery"
	"faceatt/internal/httpmiddleware"
	"faceatt/internal/queue"
	"faceatt/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := attendance.Migrate(ctx, db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisDialTimeout)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "faceatt:rebuilds")
	} else {
		q = queue.NewInMemory(16)
	}

	repo := attendance.NewRepository(db.Client)
	galleryStore := gallery.NewStore(cfg.EncodingsFile)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return err
		}
		if err := repo.EnsureAdmin(ctx, cfg.AdminUsername, hash); err != nil {
			return err
		}
	}

	extractor, cleanup, err := newExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Rebuild consumer: registration publishes a job, this goroutine
	// regenerates the encodings blob. The kiosk picks the change up through
	// its file-set watcher.
	go runRebuilds(ctx, q, cfg.KnownFacesDir, galleryStore, extractor)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/api/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all fields"})
			return
		}

		admin, err := repo.GetAdmin(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		if admin == nil || auth.CheckPassword(admin.PasswordHash, req.Password) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}

		token, exp, err := auth.Issue(admin.Username, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix()})
	})

	r.GET("/api/sections", func(c *gin.Context) {
		sections, err := repo.ListSections(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sections": sections})
	})

	authGroup := r.Group("/api", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Registration: stores the image, creates the user, and triggers a full
	// gallery rebuild.
	authGroup.POST("/capture", func(c *gin.Context) {
		var req struct {
			Name      string `json:"name" binding:"required"`
			SectionID int64  `json:"section_id" binding:"required"`
			Image     string `json:"image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing data"})
			return
		}

		img, err := decodeDataURL(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad image data"})
			return
		}

		if _, err := repo.CreateUser(c.Request.Context(), req.Name, req.SectionID); err != nil {
			if errors.Is(err, attendance.ErrDuplicateName) {
				c.JSON(http.StatusConflict, gin.H{"error": "name already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := os.MkdirAll(cfg.KnownFacesDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image store failed"})
			return
		}
		path := filepath.Join(cfg.KnownFacesDir, req.Name+".jpg")
		if err := os.WriteFile(path, img, 0o644); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image store failed"})
			return
		}

		if err := q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeRebuild}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "face registered"})
	})

	authGroup.GET("/attendance", func(c *gin.Context) {
		filter, err := rowFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		page := intQuery(c, "page", 1)
		perPage := intQuery(c, "per_page", 20)
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = 20
		}

		rows, err := repo.ListRows(c.Request.Context(), filter, perPage, (page-1)*perPage)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		total, err := repo.CountRows(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		type entry struct {
			attendance.Row
			Status string `json:"status"`
		}
		out := make([]entry, len(rows))
		for i, row := range rows {
			out[i] = entry{Row: row, Status: row.Status()}
		}
		c.JSON(http.StatusOK, gin.H{
			"records":     out,
			"total":       total,
			"page":        page,
			"total_pages": (total + perPage - 1) / perPage,
		})
	})

	authGroup.GET("/attendance/export", func(c *gin.Context) {
		filter, err := rowFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, err := repo.ListRows(c.Request.Context(), filter, 100000, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"Name", "Section", "Date", "Morning In", "Morning Out", "Afternoon In", "Afternoon Out", "Status"})
		for _, row := range rows {
			_ = w.Write([]string{
				row.Name, row.Section, row.Date.Format("2006-01-02"),
				clock(row.MorningIn), clock(row.MorningOut),
				clock(row.AfternoonIn), clock(row.AfternoonOut),
				row.Status(),
			})
		}
		w.Flush()
	})

	authGroup.GET("/employees", func(c *gin.Context) {
		var sectionID *int64
		if v := c.Query("section"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad section id"})
				return
			}
			sectionID = &id
		}
		users, err := repo.ListUsers(c.Request.Context(), c.Query("search"), sectionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": users, "total": len(users)})
	})

	authGroup.GET("/employees/export", func(c *gin.Context) {
		var sectionID *int64
		if v := c.Query("section"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad section id"})
				return
			}
			sectionID = &id
		}
		users, err := repo.ListUsers(c.Request.Context(), c.Query("search"), sectionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="employees.csv"`)
		if err := writeEmployeeCSV(c.Writer, users); err != nil {
			log.Printf("employee export failed: %v", err)
		}
	})

	authGroup.GET("/employees/:id/attendance", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
			return
		}
		filter, err := rowFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.UserID = &id

		rows, err := repo.ListRows(c.Request.Context(), filter, 1000, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": rows})
	})

	authGroup.PUT("/employees/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
			return
		}
		var req struct {
			Name      string `json:"name" binding:"required"`
			SectionID *int64 `json:"section_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := repo.UpdateUser(c.Request.Context(), id, req.Name, req.SectionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})

	authGroup.DELETE("/employees/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
			return
		}
		if err := repo.DeleteUser(c.Request.Context(), id); err != nil {
			if errors.Is(err, attendance.ErrUserHasAttendance) {
				c.JSON(http.StatusConflict, gin.H{"error": "user has attendance records"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("server exited")
	return nil
}

// runRebuilds consumes rebuild jobs and regenerates the encodings blob.
func runRebuilds(ctx context.Context, q queue.Queue, dir string, galleryStore *gallery.Store, ext facerec.Extractor) {
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Printf("rebuild consumer init failed: %v", err)
		return
	}
	for msg := range messages {
		if msg.Type != queue.TypeRebuild {
			continue
		}
		snap, err := gallery.Rebuild(dir, galleryStore, facerec.Descriptors{Ext: ext})
		if err != nil {
			log.Printf("gallery rebuild failed: %v", err)
			continue
		}
		log.Printf("gallery rebuilt: %d identities", snap.Len())
	}
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

// writeEmployeeCSV renders the filtered employee list as CSV rows.
func writeEmployeeCSV(w io.Writer, users []attendance.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Name", "Section"}); err != nil {
		return err
	}
	for _, u := range users {
		if err := cw.Write([]string{strconv.FormatInt(u.ID, 10), u.Name, u.Section}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// decodeDataURL accepts "data:image/jpeg;base64,..." or raw base64.
func decodeDataURL(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}

// rowFilter parses date_from / date_to query params.
func rowFilter(c *gin.Context) (attendance.RowFilter, error) {
	var filter attendance.RowFilter
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("bad date_from")
		}
		filter.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("bad date_to")
		}
		filter.DateTo = &t
	}
	return filter, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04:05")
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
