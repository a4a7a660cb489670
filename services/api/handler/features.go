package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// ListFeatures handles GET /api/v1/features[?fields=a,b]. With fields set,
// each feature is cut down to the named JSON fields plus its id.
func (h *REST) ListFeatures(w http.ResponseWriter, r *http.Request) {
	features := h.Catalog.Features()
	fields := parseFields(r.URL.Query().Get("fields"))
	if len(fields) == 0 {
		writeJSON(w, http.StatusOK, nonNil(features))
		return
	}
	out, err := project(features, fields)
	if err != nil {
		h.fail(w, "list features", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// FeaturedFeatures handles GET /api/v1/features/featured.
func (h *REST) FeaturedFeatures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.FeaturedFeatures()))
}

// FeaturesByCategory handles GET /api/v1/features/category/{category}.
func (h *REST) FeaturesByCategory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.FeaturesByCategory(chi.URLParam(r, "category"))))
}

// GetFeature handles GET /api/v1/features/{id}.
func (h *REST) GetFeature(w http.ResponseWriter, r *http.Request) {
	f, err := h.Catalog.Feature(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get feature", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func parseFields(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := map[string]bool{"id": true}
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields[f] = true
		}
	}
	return fields
}

func project(features []domain.Feature, fields map[string]bool) ([]map[string]json.RawMessage, error) {
	out := make([]map[string]json.RawMessage, 0, len(features))
	for _, f := range features {
		data, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		var all map[string]json.RawMessage
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, err
		}
		for k := range all {
			if !fields[k] {
				delete(all, k)
			}
		}
		out = append(out, all)
	}
	return out, nil
}
