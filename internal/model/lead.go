package model

import "time"

// Registration は事前登録フォームの送信内容。
type Registration struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Interest  *string   `json:"interest"`
	UserID    *int64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GameSubmission はゲーム指標の送信内容。
// 数値指標は任意で、存在する場合は0以上の整数。
type GameSubmission struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	GameName         string    `json:"gameName"`
	GameLink         string    `json:"gameLink"`
	DailyActiveUsers *int64    `json:"dailyActiveUsers"`
	TotalVisits      *int64    `json:"totalVisits"`
	Revenue          *int64    `json:"revenue"`
	UserID           *int64    `json:"userId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AssetSubmission はアセット制作依頼の送信内容。
type AssetSubmission struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	AssetsCount     *int64    `json:"assetsCount"`
	AssetLinks      *string   `json:"assetLinks"`
	AdditionalNotes *string   `json:"additionalNotes"`
	UserID          *int64    `json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewsletterSubscription はニュースレター購読。emailは一意。
type NewsletterSubscription struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
