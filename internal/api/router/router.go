package router

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/api"
	m "github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/metrics"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options 選用的元件, 為 nil 時不掛載
type Options struct {
	Limiter ratelimit.Limiter
	Metrics *metrics.ServerMetrics
	// MediaRoot 本機圖片目錄, MediaURL 為 "/" 開頭的路徑時才由本服務提供下載
	MediaRoot string
	MediaURL  string
}

func SetupRouter(server *api.Server, tokenMaker token.Maker[uuid.UUID], logger *zerolog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(m.AuthPayloadMiddleware(tokenMaker))
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	if opts.MediaRoot != "" && strings.HasPrefix(opts.MediaURL, "/") {
		prefix := strings.TrimRight(opts.MediaURL, "/")
		fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.MediaRoot)))
		r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
			// 不提供目錄列表
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(m.RateLimitMiddleware(opts.Limiter))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", server.UserHandler.Register)
			r.Post("/login", server.UserHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(m.AuthMiddleware)
				r.Get("/me", server.UserHandler.Me)
				r.Patch("/me", server.UserHandler.UpdateMe)
				r.Put("/me/photo", server.UserHandler.UpdatePhoto)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", server.PostHandler.ListPosts)
			r.Get("/{id}", server.PostHandler.GetPost)
			r.With(m.AuthMiddleware).Post("/", server.PostHandler.CreatePost)
			r.With(m.AuthMiddleware).Patch("/{id}", server.PostHandler.UpdatePost)
			r.With(m.AuthMiddleware).Delete("/{id}", server.PostHandler.DeletePost)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(m.AuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.GetCart)
				r.Post("/add", server.CartHandler.AddToCart)
				r.Delete("/remove/{id}", server.CartHandler.RemoveCartItem)
				r.Patch("/update/{id}", server.CartHandler.UpdateCartItem)
			})

			r.Get("/", server.OrderHandler.ListOrders)
			r.Post("/create", server.OrderHandler.CreateOrder)
			r.Get("/{id}", server.OrderHandler.GetOrder)
			r.Patch("/{id}/cancel", server.OrderHandler.CancelOrder)
		})
	})

	return r
}
