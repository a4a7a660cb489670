package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Glossary handles GET /api/v1/glossary[?q=]. q matches term, definition or
// category, ignoring case.
func (h *REST) Glossary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.SearchGlossary(r.URL.Query().Get("q"))))
}

// GlossaryTerm handles GET /api/v1/glossary/{id}.
func (h *REST) GlossaryTerm(w http.ResponseWriter, r *http.Request) {
	g, err := h.Catalog.GlossaryTerm(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get glossary term", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Warnings handles GET /api/v1/warnings[?severity=].
func (h *REST) Warnings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Warnings(r.URL.Query().Get("severity"))))
}

func (h *REST) Warning(w http.ResponseWriter, r *http.Request) {
	wl, err := h.Catalog.Warning(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get warning", err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}
