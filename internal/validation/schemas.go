package validation

// RegisterInput はユーザー登録のスキーマ。
// パスワードは8文字以上で、大文字・小文字・数字・記号をそれぞれ1文字以上含むこと。
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,has_upper,has_lower,has_digit,has_symbol"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// LoginInput はログインのスキーマ。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegistrationInput は事前登録フォームのスキーマ。
type RegistrationInput struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Interest *string `json:"interest" validate:"omitnil,max=200"`
}

// GameSubmissionInput はゲーム指標送信フォームのスキーマ。
type GameSubmissionInput struct {
	Email            string `json:"email" validate:"required,email,max=254"`
	GameName         string `json:"gameName" validate:"required,max=200"`
	GameLink         string `json:"gameLink" validate:"required,url,max=2000"`
	DailyActiveUsers Count  `json:"dailyActiveUsers" validate:"min=0"`
	TotalVisits      Count  `json:"totalVisits" validate:"min=0"`
	Revenue          Count  `json:"revenue" validate:"min=0"`
}

// AssetSubmissionInput はアセット制作依頼フォームのスキーマ。
type AssetSubmissionInput struct {
	Email           string  `json:"email" validate:"required,email,max=254"`
	AssetsCount     Count   `json:"assetsCount" validate:"min=0"`
	AssetLinks      *string `json:"assetLinks" validate:"omitnil,max=5000"`
	AdditionalNotes *string `json:"additionalNotes" validate:"omitnil,max=5000"`
}

// NewsletterInput はニュースレター購読のスキーマ。
type NewsletterInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// BlogPostInput は記事作成のスキーマ。
// slug・excerpt・readTimeは省略時にサービス層で導出する。
type BlogPostInput struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Slug          string  `json:"slug" validate:"omitempty,max=200,slug"`
	Content       string  `json:"content" validate:"required"`
	Excerpt       string  `json:"excerpt" validate:"omitempty,max=500"`
	Author        string  `json:"author" validate:"required,max=100"`
	Category      string  `json:"category" validate:"required,max=100"`
	ReadTime      string  `json:"readTime" validate:"omitempty,max=50"`
	Published     *bool   `json:"published"`
	FeaturedImage *string `json:"featuredImage" validate:"omitempty,url"`
}

// BlogPostPatch は記事の部分更新のスキーマ。指定されたフィールドのみ検証する。
type BlogPostPatch struct {
	Title         *string `json:"title" validate:"omitnil,min=1,max=200"`
	Slug          *string `json:"slug" validate:"omitnil,min=1,max=200,slug"`
	Content       *string `json:"content" validate:"omitnil,min=1"`
	Excerpt       *string `json:"excerpt" validate:"omitnil,max=500"`
	Author        *string `json:"author" validate:"omitnil,min=1,max=100"`
	Category      *string `json:"category" validate:"omitnil,min=1,max=100"`
	ReadTime      *string `json:"readTime" validate:"omitnil,min=1,max=50"`
	Published     *bool   `json:"published"`
	FeaturedImage *string `json:"featuredImage" validate:"omitempty,url"`
}

// CommentInput はコメント投稿のスキーマ。
// ゲスト投稿時の名前とメールの必須チェックはセッション状態に依存するためハンドラで行う。
type CommentInput struct {
	Content    string  `json:"content" validate:"required,max=5000"`
	GuestName  *string `json:"guestName" validate:"omitnil,max=100"`
	GuestEmail *string `json:"guestEmail" validate:"omitempty,email"`
}

// TagInput はタグ作成のスキーマ。
type TagInput struct {
	Name string `json:"name" validate:"required,max=50"`
	Slug string `json:"slug" validate:"omitempty,max=50,slug"`
}

// PostTagsInput は記事のタグ付け替えのスキーマ。空配列はタグの全解除を意味する。
type PostTagsInput struct {
	TagIDs []int64 `json:"tagIds" validate:"required,dive,gt=0"`
}

// ImageInput はURL指定による画像登録のスキーマ。
type ImageInput struct {
	URL     string  `json:"url" validate:"required,url,max=2000"`
	AltText *string `json:"altText" validate:"omitnil,max=300"`
	PostID  *int64  `json:"postId" validate:"omitnil,gt=0"`
}

// ImageUploadInput はmultipartアップロードの付随フィールドのスキーマ。
type ImageUploadInput struct {
	AltText *string `json:"altText" validate:"omitnil,max=300"`
	PostID  *int64  `json:"postId" validate:"omitnil,gt=0"`
}
