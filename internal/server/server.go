package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"anoa.com/contentscore/internal/config"
	"anoa.com/contentscore/internal/jobs"
	"anoa.com/contentscore/internal/middleware"
	"anoa.com/contentscore/pkg/locker"

	achievementRepo "anoa.com/contentscore/internal/modules/achievement/repository"

	leaderboardHttp "anoa.com/contentscore/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/contentscore/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/contentscore/internal/modules/leaderboard/service"

	ledgerRepo "anoa.com/contentscore/internal/modules/ledger/repository"

	notiHttp "anoa.com/contentscore/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/contentscore/internal/modules/notification/repository"
	notifService "anoa.com/contentscore/internal/modules/notification/service"

	postRepo "anoa.com/contentscore/internal/modules/post/repository"

	scoringHttp "anoa.com/contentscore/internal/modules/scoring/delivery/http"
	scoringService "anoa.com/contentscore/internal/modules/scoring/service"

	userRepo "anoa.com/contentscore/internal/modules/user/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// jobTimeout bounds one scheduled job run.
const jobTimeout = time.Hour

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	scheduler  *jobs.Scheduler
}

// NewServer wires repositories, services and routes. redisClient may be nil,
// in which case locking is in-process and live notifications and the
// leaderboard cache are off.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	loc, err := cfg.Scoring.Location()
	if err != nil {
		return nil, err
	}

	userRepo := userRepo.NewUserRepository(db)
	postRepo := postRepo.NewPostRepository(db)
	ledgerRepo := ledgerRepo.NewLedgerRepository(db, time.Now)
	snapshotRepo := leaderboardRepo.NewSnapshotRepository(db)
	achievementRepo := achievementRepo.NewAchievementRepository(db)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	origins := allowedOrigins(cfg)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, checkOrigin(origins))

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardService.Deps{
		Snapshots: snapshotRepo,
		Ledger:    ledgerRepo,
		Posts:     postRepo,
		Users:     userRepo,
		Redis:     redisClient,
		Location:  loc,
	})
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	var userLocker locker.Locker = locker.NewLocalLocker()
	if redisClient != nil {
		userLocker = locker.NewRedisLocker(redisClient, "lock", cfg.LockTTL)
	}

	scoringSvc := scoringService.NewScoringService(scoringService.Deps{
		DB:            db,
		Ledger:        ledgerRepo,
		Achievements:  achievementRepo,
		Snapshots:     snapshotRepo,
		Posts:         postRepo,
		Users:         userRepo,
		Leaderboard:   leaderboardSvc,
		Notifications: notificationSvc,
		Locker:        userLocker,
		Rules: scoringService.Rules{
			BasePoints:       cfg.Scoring.BasePoints,
			FirstPostBonus:   cfg.Scoring.FirstPostBonus,
			StreakMultiplier: cfg.Scoring.StreakMultiplier,
			StreakWindowDays: cfg.Scoring.StreakWindowDays,
			WeeklyWindowDays: cfg.Scoring.WeeklyWindowDays,
			Location:         loc,
		},
		LockTimeout: cfg.LockTimeout,
	})
	scoringHandler := scoringHttp.NewScoringHandler(scoringSvc)

	scheduler := jobs.NewScheduler(loc, jobTimeout)
	if err := scheduler.Register(jobs.NewRecomputeJob(scoringSvc, cfg.RecomputeCron)); err != nil {
		return nil, err
	}
	jobsHandler := jobs.NewHandler(scheduler)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret, cfg.InternalKeyHash)

	api := router.Group("/api")

	// Service-to-service routes
	internal := api.Group("/internal")
	internal.Use(authMiddleware.RequireInternalKey())
	{
		internal.POST("/events/publish", scoringHandler.PublishEvent)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/scoring/adjustments", scoringHandler.AdjustPoints)
			adminGroup.POST("/scoring/recompute/:user_id", scoringHandler.Recompute)
			adminGroup.GET("/jobs", jobsHandler.List)
			adminGroup.POST("/jobs/:name/run", jobsHandler.Run)
		}

		// Scoring routes
		protected.GET("/scoring/score", scoringHandler.GetMyScore)
		protected.GET("/scoring/achievements", scoringHandler.GetMyAchievements)
		protected.GET("/scoring/point-history", scoringHandler.GetMyPointHistory)
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine: router,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
	}, nil
}

// Scheduler is started and stopped by the process alongside the HTTP server.
func (s *Server) Scheduler() *jobs.Scheduler {
	return s.scheduler
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Run() error {
	log.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server exited with error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func allowedOrigins(cfg *config.Config) []string {
	var origins []string
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
