package routes

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"isControl": func(c model.Control, name string) bool { return string(c) == name },
	// aborts the page when a control has no widget in form.html
	"unknownControl": func(c model.Control) (string, error) {
		return "", fmt.Errorf("no widget for control %q", c)
	},
}).ParseFS(templatesFS, "templates/*.html"))

// renderPage executes a page template into a buffer first, so a template
// error still produces a clean 500.
func renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	err := pages.ExecuteTemplate(&buf, name, data)
	if err != nil {
		log.Errorf("render.%s: %s", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
