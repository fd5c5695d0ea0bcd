// Package model はドメインモデルを定義する。
package model

import "time"

// User はサイトの登録ユーザーを表す。
// パスワードハッシュはJSONに出力しない。
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser はレスポンスに載せるユーザー表現。
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public はハッシュを除いたレスポンス用の表現を返す。
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Session はサーバー側セッションを表す。
// UserIDがnilのセッションは匿名として扱う。
type Session struct {
	ID        string
	Data      SessionData
	ExpiresAt time.Time
	CreatedAt time.Time
	// IsNew はストアにまだ保存されていないことを示す。
	IsNew bool
}

// SessionData はsessions.dataに保存するJSONペイロード。
type SessionData struct {
	UserID *int64 `json:"userId,omitempty"`
}

// Authenticated はユーザーが紐付いているかを返す。
func (s *Session) Authenticated() bool {
	return s != nil && s.Data.UserID != nil
}
