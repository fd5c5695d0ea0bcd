// Package session はサーバー側セッションと署名付きCookieを管理する。
//
// Cookieには不透明なセッションIDのみをHMAC署名して格納し、ユーザーの紐付けは
// sessionsテーブルに保存する。セッションはAnonymous（ユーザー未紐付け）と
// Authenticatedの2状態を持ち、ログアウトと期限切れはどちらも以後Anonymousとして扱う。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// DefaultCookieName はセッションCookieの名前。
const DefaultCookieName = "studio.sid"

// Config はセッションマネージャーの設定。
type Config struct {
	// Secret はCookie署名鍵。PreviousSecretはローテーション中の旧鍵で、検証のみに使う。
	Secret         string
	PreviousSecret string
	CookieName     string
	CookieDomain   string
	// MaxAge はセッションの固定寿命（秒）。
	MaxAge int
	Secure bool
	// CrossSite はフロントエンドが別オリジンの場合にSameSite=Noneを使う。
	CrossSite bool
}

// Manager はセッションの読み込み・ユーザー紐付け・破棄を行う。
type Manager struct {
	store  repository.SessionRepository
	codecs []securecookie.Codec
	cfg    Config
	maxAge time.Duration
	now    func() time.Time
}

// NewManager はManagerを生成する。
func NewManager(store repository.SessionRepository, cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive: %d", cfg.MaxAge)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	keyPairs := [][]byte{[]byte(cfg.Secret), nil}
	if cfg.PreviousSecret != "" {
		keyPairs = append(keyPairs, []byte(cfg.PreviousSecret), nil)
	}
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(cfg.MaxAge)
			sc.SetSerializer(securecookie.JSONEncoder{})
		}
	}

	return &Manager{
		store:  store,
		codecs: codecs,
		cfg:    cfg,
		maxAge: time.Duration(cfg.MaxAge) * time.Second,
		now:    time.Now,
	}, nil
}

// CookieName はセッションCookieの名前を返す。
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Load はリクエストのCookieからセッションを読み込む。
// Cookieがない・署名が不正・ストアに存在しない・期限切れの場合は匿名セッションを返す。
// ストアに到達できない場合はSessionStoreUnavailableを返し、匿名扱いにはしない。
func (m *Manager) Load(ctx context.Context, r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return anonymous(), nil
	}

	var id string
	if err := securecookie.DecodeMulti(m.cfg.CookieName, cookie.Value, &id, m.codecs...); err != nil {
		slog.Debug("session cookie rejected", slog.String("error", err.Error()))
		return anonymous(), nil
	}

	s, err := m.store.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewSessionStoreUnavailableError(err)
	}
	if s == nil {
		return anonymous(), nil
	}
	return s, nil
}

// AttachUser はセッションにユーザーを紐付けてAuthenticatedにする。
// セッション固定攻撃を防ぐためIDを再発行し、ストアへの保存が完了してからCookieを設定する。
func (m *Manager) AttachUser(ctx context.Context, w http.ResponseWriter, s *model.Session, userID int64) error {
	if s == nil {
		s = anonymous()
	}
	oldID := s.ID

	id, err := generateSessionID()
	if err != nil {
		return model.NewInternalError(fmt.Errorf("failed to generate session ID: %w", err))
	}

	now := m.now()
	uid := userID
	next := model.Session{
		ID:        id,
		Data:      model.SessionData{UserID: &uid},
		CreatedAt: now,
		ExpiresAt: now.Add(m.maxAge),
	}

	if err := m.store.Save(ctx, &next); err != nil {
		return model.NewSessionStoreUnavailableError(err)
	}
	if oldID != "" {
		if err := m.store.DeleteByID(ctx, oldID); err != nil {
			slog.Warn("failed to delete superseded session", slog.String("error", err.Error()))
		}
	}

	if err := m.writeCookie(w, id, next.ExpiresAt); err != nil {
		return model.NewInternalError(err)
	}

	*s = next
	return nil
}

// CurrentUserID はセッションに紐付いたユーザーIDを返す。
// 匿名セッションの場合はfalseを返す。
func CurrentUserID(s *model.Session) (int64, bool) {
	if !s.Authenticated() {
		return 0, false
	}
	return *s.Data.UserID, true
}

// Destroy はセッションを破棄し、Cookieを削除する。
// 匿名セッションや既に破棄済みのセッションに対しても成功する。
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *model.Session) error {
	if s != nil && s.ID != "" {
		if err := m.store.DeleteByID(ctx, s.ID); err != nil {
			return model.NewSessionStoreUnavailableError(err)
		}
	}

	m.clearCookie(w)
	if s != nil {
		*s = *anonymous()
	}
	return nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, id string, expires time.Time) error {
	encoded, err := securecookie.EncodeMulti(m.cfg.CookieName, id, m.codecs...)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	c := m.baseCookie()
	c.Value = encoded
	c.MaxAge = m.cfg.MaxAge
	c.Expires = expires.UTC()
	http.SetCookie(w, c)
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	c := m.baseCookie()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (m *Manager) baseCookie() *http.Cookie {
	sameSite := http.SameSiteStrictMode
	if m.cfg.CrossSite {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   m.cfg.Secure || m.cfg.CrossSite,
		SameSite: sameSite,
	}
}

func anonymous() *model.Session {
	return &model.Session{IsNew: true}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
