package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/services/api/middleware"
)

func TestGlossary(t *testing.T) {
	e := newEnv(t)

	all := e.do(http.MethodGet, "/api/v1/glossary", "", nil)
	require.Equal(t, http.StatusOK, all.Code)
	assert.Len(t, decode[[]domain.GlossaryTerm](t, all), 8)

	tests := []struct {
		query string
		want  []string
	}{
		{"kwh", []string{"kwh"}},
		{"Assistance", []string{"acc", "lane-assist"}},
		{"on-board+charger", []string{"ac-charging", "dc-charging"}},
		{"nothing-matches", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := e.do(http.MethodGet, "/api/v1/glossary?q="+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			ids := []string{}
			for _, g := range decode[[]domain.GlossaryTerm](t, rec) {
				ids = append(ids, g.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	term := decode[domain.GlossaryTerm](t, e.do(http.MethodGet, "/api/v1/glossary/regen", "", nil))
	assert.Equal(t, "Regenerative braking", term.Term)
	assert.Equal(t, []string{"bev"}, term.RelatedTerms)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/glossary/warp", "", nil).Code)
}

func TestWarnings(t *testing.T) {
	e := newEnv(t)

	first := e.do(http.MethodGet, "/api/v1/warnings", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Len(t, decode[[]domain.WarningLight](t, first), 6)
	assert.Equal(t, "MISS", first.Header().Get(middleware.HeaderCache))
	assert.Equal(t, "HIT", e.do(http.MethodGet, "/api/v1/warnings", "", nil).Header().Get(middleware.HeaderCache))

	for _, w := range decode[[]domain.WarningLight](t, e.do(http.MethodGet, "/api/v1/warnings?severity=low", "", nil)) {
		assert.Equal(t, domain.SeverityLow, w.Severity)
	}

	w := decode[domain.WarningLight](t, e.do(http.MethodGet, "/api/v1/warnings/brake-system", "", nil))
	assert.Equal(t, domain.WarningRed, w.Color)
	assert.NotEmpty(t, w.ActionRequired)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/warnings/nope", "", nil).Code)
}
