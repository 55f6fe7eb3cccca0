package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dskvich/ifood-info-bot/pkg/api/response"
	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type ThemeCatalog interface {
	Root() []domain.ThemeOption
	Find(id string) (domain.ThemeOption, bool)
}

type themes struct {
	catalog ThemeCatalog
	writer  response.JSONResponseWriter
}

func NewThemes(catalog ThemeCatalog) *themes {
	return &themes{
		catalog: catalog,
		writer:  response.JSONResponseWriter{},
	}
}

func (t *themes) List(w http.ResponseWriter, _ *http.Request) {
	t.writer.WriteSuccessResponse(w, t.catalog.Root())
}

// Get returns one theme with its subtopics.
func (t *themes) Get(w http.ResponseWriter, r *http.Request) {
	theme, ok := t.catalog.Find(chi.URLParam(r, "themeID"))
	if !ok {
		t.writer.WriteErrorResponse(w, http.StatusNotFound, "Theme not found.")
		return
	}
	t.writer.WriteSuccessResponse(w, theme)
}
