package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer は埋め込みテンプレートによるHTML描画を提供する。
// テンプレートは起動時に1回パースする。
type Renderer struct {
	templates *template.Template
}

// NewRenderer は埋め込みFSからテンプレートをパースしてRendererを生成する。
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates}, nil
}

// Render は指定テンプレートを描画する。
// 描画エラー時は中途半端なボディを返さないよう、バッファに描画してから書き出す。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// RenderError は汎用エラーページを描画する。
// userMessageはユーザーにそのまま表示する説明文で、空の場合は定型文のみになる。
// 内部エラーの詳細は呼び出し側でログに残し、ここでは一切表示しない。
func (r *Renderer) RenderError(w http.ResponseWriter, status int, userMessage string) {
	r.Render(w, status, "error.html", struct {
		Message string
	}{Message: userMessage})
}
