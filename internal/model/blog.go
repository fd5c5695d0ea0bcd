package model

import "time"

// BlogPost はブログ記事を表す。slugは一意。
type BlogPost struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Author        string    `json:"author"`
	AuthorID      *int64    `json:"authorId"`
	Category      string    `json:"category"`
	ReadTime      string    `json:"readTime"`
	Published     bool      `json:"published"`
	FeaturedImage *string   `json:"featuredImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BlogPostUpdate は部分更新の差分。nilのフィールドは変更しない。
type BlogPostUpdate struct {
	Title         *string
	Slug          *string
	Content       *string
	Excerpt       *string
	Author        *string
	Category      *string
	ReadTime      *string
	Published     *bool
	FeaturedImage *string
}

// Comment は記事へのコメント。ログインユーザーかゲストのどちらかが投稿者になる。
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	UserID     *int64    `json:"userId"`
	GuestName  *string   `json:"guestName"`
	GuestEmail *string   `json:"-"`
	Content    string    `json:"content"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Tag は記事タグ。
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image は記事に紐付く画像。StorageKeyはアップロードされたオブジェクトのみ持つ。
type Image struct {
	ID         int64     `json:"id"`
	PostID     *int64    `json:"postId"`
	URL        string    `json:"url"`
	StorageKey *string   `json:"-"`
	AltText    *string   `json:"altText"`
	UploadedBy *int64    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
