package api

import (
	"embed"
	"html/template"
	"net/http"

	"verbitskysystems.com/website/internal/core"
	"verbitskysystems.com/website/internal/store"
	"verbitskysystems.com/website/internal/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"filesize": utils.FormatFileSize,
	}).ParseFS(templatesFS, "templates/*.html"),
)

type pageData struct {
	Views      []string
	Active     string
	Fragment   string
	Prompts    []string
	Documents  []store.Document
	Categories []store.Category
}

// IndexHandler serves the single-page shell. The address fragment is the
// real navigation state; the optional ?view= query only covers no-JS deep
// links, run through the same navigator contract.
func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	nav := core.NewNavigator(h.shell.Navigator.Views()...)
	nav.NavigateFragment(r.URL.Query().Get("view"))

	// A catalog failure degrades to an empty documents page; the rest of the
	// shell keeps working.
	docs, err := h.library.ListDocuments("", "")
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load document catalog for page")
	}
	cats, err := h.library.ListCategories()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load categories for page")
	}

	data := pageData{
		Views:      nav.Views(),
		Active:     nav.Current(),
		Fragment:   nav.Fragment(),
		Prompts:    h.shell.Chat.SuggestedPrompts(),
		Documents:  docs,
		Categories: cats,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.log.Error().Err(err).Msg("failed to render index page")
	}
}
