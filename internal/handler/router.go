package handler

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/metrics"
	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/validation"
)

// compressionLevel はgzip・brotli共通の圧縮レベル。
const compressionLevel = 5

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler
	RateLimiter        *middleware.RateLimiter
	SessionLoader      middleware.SessionLoader
	CORSAllowedOrigins []string
	// CSRF がnilの場合はCSRF検証を行わない。
	CSRF       *middleware.CSRFConfig
	TrustProxy bool
	HSTS       bool

	// ExposeErrorDetail は500系レスポンスにdetailを含める（非本番のみ）。
	ExposeErrorDetail bool
	Environment       string
	Validator         *validation.Validator

	// 認証
	Credentials CredentialService
	Sessions    SessionService

	// 公開フォーム
	LeadService LeadServiceInterface

	// ブログ
	BlogService BlogServiceInterface
	Feed        blog.FeedInfo

	// DB はヘルスチェックでの疎通確認に使う。nilなら省略する。
	DB Pinger
	// StaticFiles がnilの場合はフロントエンドを配信しない。
	StaticFiles fs.FS
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP(TrustProxy時) → Logging → Recovery → SecurityHeaders → CORS → Compress
//	/api配下: RateLimit(General) → Session → [CSRF] → [RequireAuth] → ハンドラー
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	// X-Forwarded-Forはプロキシ配下でのみ信頼する
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(logger, collector))
	r.Use(middleware.NewRecoveryMiddleware(deps.ExposeErrorDetail))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(newCompressor().Handler)

	health := NewHealthHandler(deps.DB, deps.Environment)
	authHandler := NewAuthHandler(deps.Credentials, deps.Sessions, v, collector, deps.ExposeErrorDetail)
	leadHandler := NewLeadHandler(deps.LeadService, v, deps.ExposeErrorDetail)
	blogHandler := NewBlogHandler(deps.BlogService, v, deps.Feed, deps.ExposeErrorDetail)

	r.Method(http.MethodGet, "/health", health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.SessionLoader, collector))
		if deps.CSRF != nil {
			r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(*deps.CSRF))
		}

		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiMethodNotAllowed)

		r.Method(http.MethodGet, "/health", health)

		// 認証（register/loginは認証専用のレート制限を追加）
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.RequireAuth).Get("/me", authHandler.Me)
		})

		// 公開フォーム
		r.Post("/registrations", leadHandler.CreateRegistration)
		r.Post("/submissions/game", leadHandler.SubmitGame)
		r.Post("/submissions/asset", leadHandler.SubmitAsset)
		r.Post("/newsletter/subscribe", leadHandler.Subscribe)

		// ブログ
		r.Route("/blog", func(r chi.Router) {
			r.Get("/", blogHandler.ListPosts)
			r.Get("/rss", blogHandler.RSS)
			r.Get("/tags", blogHandler.ListTags)
			r.Get("/category/{category}", blogHandler.ListByCategory)
			r.Get("/search/{query}", blogHandler.Search)
			r.Get("/{slug}", blogHandler.GetPost)
			r.Get("/{slug}/comments", blogHandler.ListComments)
			r.Post("/{slug}/comments", blogHandler.AddComment)
			r.Get("/{postID}/tags", blogHandler.PostTags)
			r.Get("/{postID}/images", blogHandler.PostImages)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)

				r.Post("/", blogHandler.CreatePost)
				r.Put("/{id}", blogHandler.UpdatePost)
				r.Delete("/{id}", blogHandler.DeletePost)

				r.Put("/comments/{id}/approve", blogHandler.ApproveComment)
				r.Delete("/comments/{id}", blogHandler.DeleteComment)

				r.Post("/tags", blogHandler.CreateTag)
				r.Post("/{postID}/tags", blogHandler.SetPostTags)

				r.Post("/images", blogHandler.CreateImage)
				r.Delete("/images/{id}", blogHandler.DeleteImage)
			})
		})
	})

	if deps.StaticFiles != nil {
		r.NotFound(NewStaticHandler(deps.StaticFiles).ServeHTTP)
	}

	return r
}

// newCompressor はbrotliとgzipに対応したレスポンス圧縮ミドルウェアを生成する。
func newCompressor() *chimw.Compressor {
	c := chimw.NewCompressor(compressionLevel,
		"application/json",
		"application/rss+xml",
		"text/html",
		"text/css",
		"text/plain",
		"text/javascript",
		"application/javascript",
		"image/svg+xml",
	)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}
