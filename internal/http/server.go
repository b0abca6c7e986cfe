package httpapi

import (
	"context"
	"net/http"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/config"
	"newsdesk-sections/internal/feed"
	"newsdesk-sections/internal/services"
	"newsdesk-sections/internal/templates"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ArticleBackend is the upstream content API as seen by the handlers.
type ArticleBackend interface {
	feed.Source
	Search(ctx context.Context, term string, limit int) ([]articles.Article, error)
	SetCover(ctx context.Context, articleID, imageURL string) error
}

type Server struct {
	Config    config.Config
	Store     services.Store
	Sections  *services.SectionService
	Plans     *services.PlanBuilder
	Articles  ArticleBackend
	Templates *templates.Registry
	Hub       *services.ChangeHub
	Metrics   *services.Metrics
	Log       *zap.Logger
}

func NewServer(cfg config.Config, store services.Store, backend ArticleBackend, hub *services.ChangeHub, metrics *services.Metrics, log *zap.Logger) (*Server, error) {
	registry, err := templates.NewRegistry()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	resolver := feed.NewResolver(backend)
	plans := services.NewPlanBuilder(store, resolver, services.PlanConfig{
		CacheTTL:    cfg.PlanCacheTTL,
		Concurrency: cfg.PlanConcurrency,
	}, metrics, log)
	sectionService := services.NewSectionService(store)
	sectionService.OnChange(func(services.ChangeEvent) { plans.Invalidate() })
	if hub != nil {
		sectionService.OnChange(hub.Publish)
	}
	return &Server{
		Config:    cfg,
		Store:     store,
		Sections:  sectionService,
		Plans:     plans,
		Articles:  backend,
		Templates: registry,
		Hub:       hub,
		Metrics:   metrics,
		Log:       log,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Log, s.Metrics))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.Health)

		api.Route("/sections", func(sections chi.Router) {
			sections.Get("/", s.ListSections)
			sections.Post("/", s.CreateSection)
			sections.Get("/plan", s.SectionPlan)
			sections.Get("/{sectionId}", s.GetSection)
			sections.Patch("/{sectionId}", s.UpdateSection)
			sections.Delete("/{sectionId}", s.DeleteSection)
		})

		api.Route("/articles", func(arts chi.Router) {
			arts.Get("/", s.SearchArticles)
			arts.Post("/query", s.QueryArticles)
			arts.Patch("/{articleId}/cover", s.UpdateArticleCover)
		})
	})

	r.Get("/render/{sectionType}", s.RenderPage)
	r.Get("/ws/sections", s.SectionsSocket)
	if s.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
