package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/darave/studio/internal/metrics"
	"github.com/darave/studio/internal/model"
)

// レート制限のスコープ名。ログとメトリクスのラベルに使う。
const (
	ScopeGeneral = "general"
	ScopeAuth    = "auth"
)

// RateLimiterConfig はレート制限の設定を保持する。
// 各予算は直近Windowあたりのリクエスト数（スライディングウィンドウ）で、
// 直近Window内に受け付けた数が予算に達している間は以後のリクエストを拒否する。
type RateLimiterConfig struct {
	Window          time.Duration // 予算の対象期間
	GeneralLimit    int           // API全般の予算
	AuthLimit       int           // register/loginの予算
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 100 req/15min/IP、認証 5 req/15min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Window:          15 * time.Minute,
		GeneralLimit:    100,
		AuthLimit:       5,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientWindow はクライアントごとの、Window内に受け付けたリクエスト時刻を古い順に保持する。
type clientWindow struct {
	hits       []time.Time
	lastAccess time.Time
}

// limiterSet は1つの予算に属するクライアント別スライディングウィンドウの集合。
type limiterSet struct {
	scope   string
	message string
	budget  int
	window  time.Duration
	// 拒否ログは攻撃時に溢れるため間引く
	warn    rate.Sometimes

	mu      sync.Mutex
	clients map[string]*clientWindow
}

func newLimiterSet(scope, message string, budget int, window time.Duration) *limiterSet {
	return &limiterSet{
		scope:   scope,
		message: message,
		budget:  budget,
		window:  window,
		warn:    rate.Sometimes{First: 1, Interval: 10 * time.Second},
		clients: make(map[string]*clientWindow),
	}
}

// allow はnow時点でkeyのリクエストを受け付けられるか判定し、受け付けた場合は記録する。
// 拒否した場合は、Window内で最も古いリクエストが期間外になるまでの時間を返す。
func (s *limiterSet) allow(key string, now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cw, ok := s.clients[key]
	if !ok {
		cw = &clientWindow{hits: make([]time.Time, 0, s.budget)}
		s.clients[key] = cw
	}
	cw.lastAccess = now

	cutoff := now.Add(-s.window)
	i := 0
	for i < len(cw.hits) && !cw.hits[i].After(cutoff) {
		i++
	}
	cw.hits = cw.hits[i:]

	if len(cw.hits) >= s.budget {
		return false, cw.hits[0].Add(s.window).Sub(now)
	}
	cw.hits = append(cw.hits, now)
	return true, 0
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// sweep は最終アクセスからttlを超えたエントリを削除する。
func (s *limiterSet) sweep(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cw := range s.clients {
		if now.Sub(cw.lastAccess) > ttl {
			delete(s.clients, key)
		}
	}
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// API全般の予算と、より厳しい認証エンドポイント用の予算の2種類を提供する。
type RateLimiter struct {
	config    RateLimiterConfig
	collector metrics.MetricsCollector
	now       func() time.Time

	general *limiterSet
	auth    *limiterSet

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig, collector metrics.MetricsCollector) *RateLimiter {
	if collector == nil {
		collector = metrics.Nop{}
	}
	defaults := DefaultRateLimiterConfig()
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.GeneralLimit <= 0 {
		config.GeneralLimit = defaults.GeneralLimit
	}
	if config.AuthLimit <= 0 {
		config.AuthLimit = defaults.AuthLimit
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	rl := &RateLimiter{
		config:    config,
		collector: collector,
		now:       time.Now,
		general: newLimiterSet(ScopeGeneral,
			"Too many requests from this IP, please try again later.",
			config.GeneralLimit, config.Window),
		auth: newLimiterSet(ScopeAuth,
			"Too many authentication attempts, please try again later.",
			config.AuthLimit, config.Window),
		stopCh: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general)
}

// AuthMiddleware は認証エンドポイント専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に予算を消費する。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.auth)
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.len()
}

// AuthLimiterCount は現在管理されている認証リミッターのエントリ数を返す。
func (rl *RateLimiter) AuthLimiterCount() int {
	return rl.auth.len()
}

func (rl *RateLimiter) middleware(set *limiterSet) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, retryAfter := set.allow(ip, rl.now())
			if !ok {
				rl.collector.RecordRateLimited(set.scope)
				set.warn.Do(func() {
					slog.Warn("rate limit exceeded",
						slog.String("client_ip", ip),
						slog.String("limit_type", set.scope),
					)
				})
				writeRateLimitResponse(w, set, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はWindowより長くアクセスがないエントリを削除する。
// そのようなエントリのリクエスト時刻はすべて期間外のため、削除しても制限は緩まない。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.Window
	if ttl < rl.config.CleanupInterval*2 {
		ttl = rl.config.CleanupInterval * 2
	}
	now := rl.now()
	rl.general.sweep(now, ttl)
	rl.auth.sweep(now, ttl)
}

// clientIP はリクエスト元IPを返す。
// プロキシ配下ではchiのRealIPミドルウェアがRemoteAddrを書き換えた後に呼ばれる。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには次のリクエストが受け付けられるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, set *limiterSet, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))

	apiErr := model.NewRateLimitedError()
	apiErr.Message = set.message
	WriteErrorResponse(w, http.StatusTooManyRequests, apiErr)
}
