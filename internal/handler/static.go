package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/model"
)

// indexFile はクライアントサイドルーティングのフォールバック先。
const indexFile = "index.html"

// MessageAPINotFound は存在しないAPIエンドポイントへのメッセージ。
const MessageAPINotFound = "API endpoint not found"

// StaticHandler はビルド済みフロントエンドを配信する。
// 存在しないパスにはindex.htmlを返すが、/api配下には返さない。
type StaticHandler struct {
	files  fs.FS
	server http.Handler
}

// NewStaticHandler はfilesを配信するStaticHandlerを生成する。
func NewStaticHandler(files fs.FS) *StaticHandler {
	return &StaticHandler{
		files:  files,
		server: http.FileServerFS(files),
	}
}

// ServeHTTP は静的ファイルを配信する。
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		apiNotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" {
		if info, err := fs.Stat(h.files, name); err == nil && !info.IsDir() {
			h.server.ServeHTTP(w, r)
			return
		}
	}

	// フロントエンドのルートはindex.htmlに任せる
	if _, err := fs.Stat(h.files, indexFile); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, h.files, indexFile)
}

// apiNotFound は/api配下の未定義ルートにJSONの404を返す。
func apiNotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError(MessageAPINotFound))
}

// apiMethodNotAllowed は/api配下で許可されていないメソッドにJSONの405を返す。
func apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
}
