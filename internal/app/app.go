package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/darave/studio/internal/auth"
	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/config"
	"github.com/darave/studio/internal/database"
	"github.com/darave/studio/internal/handler"
	"github.com/darave/studio/internal/lead"
	"github.com/darave/studio/internal/logger"
	"github.com/darave/studio/internal/metrics"
	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/repository"
	"github.com/darave/studio/internal/security"
	"github.com/darave/studio/internal/session"
	"github.com/darave/studio/internal/storage"
	"github.com/darave/studio/internal/validation"
	"github.com/darave/studio/internal/worker/cleanup"
)

const (
	// shutdownTimeout はグレースフルシャットダウンの待ち時間。
	shutdownTimeout = 30 * time.Second
	// defaultHealthcheckPort はSERVER_PORT未設定時のヘルスチェック先ポート。
	defaultHealthcheckPort = "5000"

	feedTitle       = "Darave Studio Blog"
	feedDescription = "News, devlogs and release notes from Darave Studio"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前のエラーもJSONで出力できるようにする
	logger.SetupDefault(w, slog.LevelInfo)

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultHealthcheckPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// connect はDB接続を開き、DBTimeout以内の疎通を確認する。
func connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, cfg.DBTimeout)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// 接続とマイグレーションを済ませてから待ち受けを開始し、どちらかが失敗した場合は起動しない。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := runMigrate(cfg); err != nil {
		return err
	}

	h, closeHandler, err := buildHandler(ctx, cfg, db, slog.Default())
	if err != nil {
		return err
	}
	defer closeHandler()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildHandler はリポジトリ・サービス・ミドルウェアをワイヤリングしてルーターを返す。
// 戻り値の関数はバックグラウンド処理（レートリミッターの掃除）を停止する。
func buildHandler(ctx context.Context, cfg *config.Config, db *sql.DB, log *slog.Logger) (http.Handler, func(), error) {
	// 1. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db, cfg.DBTimeout)
	sessionRepo := repository.NewPostgresSessionRepo(db, cfg.DBTimeout)
	leadRepo := repository.NewPostgresLeadRepo(db, cfg.DBTimeout)
	blogRepos := blog.Repositories{
		Posts:    repository.NewPostgresPostRepo(db, cfg.DBTimeout),
		Comments: repository.NewPostgresCommentRepo(db, cfg.DBTimeout),
		Tags:     repository.NewPostgresTagRepo(db, cfg.DBTimeout),
		Images:   repository.NewPostgresImageRepo(db, cfg.DBTimeout),
	}

	// 2. メトリクス（プロセス単位のレジストリ）
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. 認証・セッション
	authService, err := auth.NewService(userRepo, auth.BcryptHasher{})
	if err != nil {
		return nil, nil, err
	}
	sessions, err := session.NewManager(sessionRepo, session.Config{
		Secret:         cfg.SessionSecret,
		PreviousSecret: cfg.SessionSecretPrevious,
		CookieDomain:   cfg.CookieDomain,
		MaxAge:         cfg.SessionMaxAge,
		Secure:         cfg.CookieSecure,
		CrossSite:      cfg.CrossSiteCookies,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	// 4. オブジェクトストレージ（未設定ならアップロード無効）
	var store storage.ObjectStore
	if cfg.StorageEnabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		store = s3Store
		log.Info("object storage enabled", slog.String("bucket", cfg.S3Bucket))
	}

	// 5. ドメインサービス
	blogService := blog.NewService(blogRepos, security.NewContentSanitizer(), store, cfg.UploadMaxBytes)
	leadService := lead.NewService(leadRepo)

	// 6. ミドルウェア依存
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Window:          cfg.RateLimitWindow,
		GeneralLimit:    cfg.RateLimitGeneral,
		AuthLimit:       cfg.RateLimitAuth,
		CleanupInterval: middleware.DefaultRateLimiterConfig().CleanupInterval,
	}, collector)

	var csrf *middleware.CSRFConfig
	if cfg.CSRFProtection {
		csrf = &middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			CrossSite:    cfg.CrossSiteCookies,
		}
	}

	deps := &handler.RouterDeps{
		Logger:             log,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(registry),
		RateLimiter:        limiter,
		SessionLoader:      sessions,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CSRF:               csrf,
		TrustProxy:         cfg.TrustProxy,
		HSTS:               cfg.IsProduction(),
		ExposeErrorDetail:  !cfg.IsProduction(),
		Environment:        cfg.AppEnv,
		Validator:          validation.New(),

		Credentials: authService,
		Sessions:    sessions,
		LeadService: leadService,
		BlogService: blogService,
		Feed: blog.FeedInfo{
			Title:       feedTitle,
			Description: feedDescription,
			SiteURL:     cfg.BaseURL,
		},

		DB: db,
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		deps.StaticFiles = os.DirFS(cfg.StaticDir)
	} else {
		log.Warn("static directory not found, frontend will not be served",
			slog.String("dir", cfg.StaticDir),
		)
	}

	return handler.NewRouter(deps), limiter.Stop, nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションのクリーンアップをSESSION_CLEANUP_INTERVAL間隔で実行し、
// ctxがキャンセルされるまでブロックする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionRepo := repository.NewPostgresSessionRepo(db, cfg.DBTimeout)
	job := cleanup.NewCleanupJob(sessionRepo, slog.Default(), metrics.Nop{})

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)
	if err := job.Start(ctx, cfg.SessionCleanupInterval); err != nil {
		return err
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
