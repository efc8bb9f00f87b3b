package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"anoa.com/feedsync/internal/config"
	"anoa.com/feedsync/internal/middleware"
	"anoa.com/feedsync/internal/scheduler"
	"anoa.com/feedsync/pkg/ratelimiter"
	"anoa.com/feedsync/pkg/realtime"
	"anoa.com/feedsync/pkg/storage"

	feedHttp "anoa.com/feedsync/internal/modules/feed/delivery/http"
	feedRepo "anoa.com/feedsync/internal/modules/feed/repository"
	feedService "anoa.com/feedsync/internal/modules/feed/service"

	groupHttp "anoa.com/feedsync/internal/modules/group/delivery/http"
	groupRepo "anoa.com/feedsync/internal/modules/group/repository"
	groupService "anoa.com/feedsync/internal/modules/group/service"

	interactionHttp "anoa.com/feedsync/internal/modules/interaction/delivery/http"
	interactionRepo "anoa.com/feedsync/internal/modules/interaction/repository"
	interactionService "anoa.com/feedsync/internal/modules/interaction/service"

	inviteHttp "anoa.com/feedsync/internal/modules/invite/delivery/http"
	inviteRepo "anoa.com/feedsync/internal/modules/invite/repository"
	inviteService "anoa.com/feedsync/internal/modules/invite/service"

	mentionRepo "anoa.com/feedsync/internal/modules/mention/repository"
	mentionService "anoa.com/feedsync/internal/modules/mention/service"

	notiHttp "anoa.com/feedsync/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/feedsync/internal/modules/notification/repository"
	notifService "anoa.com/feedsync/internal/modules/notification/service"

	postHttp "anoa.com/feedsync/internal/modules/post/delivery/http"
	postRepo "anoa.com/feedsync/internal/modules/post/repository"
	postService "anoa.com/feedsync/internal/modules/post/service"

	profileHttp "anoa.com/feedsync/internal/modules/profile/delivery/http"
	profileRepo "anoa.com/feedsync/internal/modules/profile/repository"
	profileService "anoa.com/feedsync/internal/modules/profile/service"

	searchHttp "anoa.com/feedsync/internal/modules/search/delivery/http"
	searchService "anoa.com/feedsync/internal/modules/search/service"

	sessionHttp "anoa.com/feedsync/internal/modules/session/delivery/http"
	sessionService "anoa.com/feedsync/internal/modules/session/service"

	trendingHttp "anoa.com/feedsync/internal/modules/trending/delivery/http"
	trendingRepo "anoa.com/feedsync/internal/modules/trending/repository"
	trendingService "anoa.com/feedsync/internal/modules/trending/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	idleSweepSchedule = "@every 1m"
	jobTimeout        = 2 * time.Minute
)

// Infra is what the server is built on. RedisClient and Storage may be nil:
// without Redis writes are not rate limited, without Storage uploads answer
// 503.
type Infra struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Broker      realtime.Broker
	Search      meilisearch.ServiceManager
	Storage     storage.ImageStorage
}

type Server struct {
	engine    *gin.Engine
	registry  *sessionService.Registry
	scheduler *scheduler.Scheduler
}

func NewServer(cfg *config.Config, infra Infra) (*Server, error) {
	db := infra.DB
	limiter := ratelimiter.New(infra.RedisClient)

	profileRepository := profileRepo.NewProfileRepository(db)
	profileSvc := profileService.NewProfileService(profileRepository)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	dispatcher := notifService.NewDispatcher(notificationRepository, infra.Broker)
	notificationHandler := notiHttp.NewNotificationHandler(dispatcher, cfg.NotificationFetchLimit)

	mentionRecorder := mentionService.NewRecorder(mentionRepo.NewMentionRepository(db), profileRepository, dispatcher)
	mentions := mentionService.NewProcessor(mentionService.NewExtractor(profileRepository), mentionRecorder)

	groupRepository := groupRepo.NewGroupRepository(db)
	inviteRepository := inviteRepo.NewInviteRepository(db)

	groupSvc := groupService.NewGroupService(groupRepository, inviteRepository)
	groupHandler := groupHttp.NewGroupHandler(groupSvc)

	inviteSvc := inviteService.NewInviteService(inviteRepository, groupRepository, profileRepository, dispatcher)
	inviteHandler := inviteHttp.NewInviteHandler(inviteSvc)

	feedSvc := feedService.NewFeedService(feedRepo.NewFeedRepository(db))
	feedHandler := feedHttp.NewFeedHandler(feedSvc)

	trendingSvc := trendingService.NewTrendingService(trendingRepo.NewCorpusRepository(db), cfg.TrendingLimit)
	trendingHandler := trendingHttp.NewTrendingHandler(trendingSvc)

	searchSvc := searchService.NewMeiliSearchService(infra.Search)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	postSvc := postService.NewPostService(postRepo.NewPostRepository(db), groupRepository, mentions, searchSvc, dispatcher, infra.Storage, limiter, cfg.RateLimitPost)
	postHandler := postHttp.NewPostHandler(postSvc)

	interactionRepository := interactionRepo.NewInteractionRepository(db)
	registry := sessionService.NewRegistry(sessionService.Deps{
		Feed:       feedSvc,
		Trending:   trendingSvc,
		Invites:    inviteSvc,
		Groups:     groupSvc,
		Dispatcher: dispatcher,
		Subscriber: infra.Broker,
		NewController: func() *interactionService.Controller {
			return interactionService.NewController(interactionRepository, mentions, limiter, cfg.RateLimitComment)
		},
		NotificationLimit: cfg.NotificationFetchLimit,
	}, cfg.SessionIdleTimeout)
	interactionHandler := interactionHttp.NewInteractionHandler(registry)

	origins := splitOrigins(cfg.AllowedOrigins)
	sessionHandler := sessionHttp.NewSessionHandler(registry, origins)

	jobs := scheduler.New(jobTimeout)
	for _, job := range []scheduler.Job{
		scheduler.TrendingRefresh(registry, cfg.TrendingRefreshCron),
		scheduler.IdleSweep(registry, idleSweepSchedule),
	} {
		if err := jobs.Register(job); err != nil {
			registry.Close()
			return nil, err
		}
	}

	router := gin.New()

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/ws"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	// Reads work for anonymous viewers too
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", feedHandler.GetFeed)
		public.GET("/feed/:post_id", feedHandler.GetPost)
		public.GET("/users/:user_id/posts", feedHandler.GetUserPosts)

		public.GET("/posts/:post_id/like", interactionHandler.GetLike)
		public.GET("/posts/:post_id/comments", interactionHandler.GetComments)

		public.GET("/trending", trendingHandler.GetTrending)
		public.GET("/search", searchHandler.SearchPosts)

		public.GET("/profiles/suggest", profileHandler.Suggest)
		public.GET("/profiles/:username", profileHandler.GetProfileByUsername)

		public.GET("/ws", sessionHandler.HandleWebSocket)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/posts", postHandler.CreatePost)
		protected.POST("/posts/:post_id/like", interactionHandler.ToggleLike)
		protected.POST("/posts/:post_id/comments", interactionHandler.CreateComment)
		protected.POST("/upload", postHandler.UploadImage)

		protected.POST("/groups", groupHandler.CreateGroup)
		protected.GET("/groups", groupHandler.GetMyGroups)
		protected.POST("/groups/:group_id/join", groupHandler.JoinGroup)
		protected.POST("/groups/:group_id/invites", inviteHandler.CreateInvite)

		protected.GET("/invites", inviteHandler.GetPendingInvites)
		protected.POST("/invites/:invite_id/respond", inviteHandler.RespondInvite)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:    router,
		registry:  registry,
		scheduler: jobs,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start warms the trending cache and starts the background jobs.
func (s *Server) Start(ctx context.Context) {
	// A failed warm-up is logged by the scheduler; the cron run retries it.
	_ = s.scheduler.RunByName(ctx, scheduler.TrendingJob)
	s.scheduler.Start()
}

// Stop halts the jobs and ends every live session.
func (s *Server) Stop() {
	s.scheduler.Stop()
	s.registry.Close()
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
