package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorLoaded(t *testing.T) {
	m := New(false)
	m.DescriptorLoaded(nil)
	m.DescriptorLoaded(nil)
	m.DescriptorLoaded(errors.New("404"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DescriptorLoads.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DescriptorLoads.WithLabelValues(ResultFailed)))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(false), New(false)
	a.Viewers.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Viewers))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Viewers))
}

func TestHandlerAndMiddleware(t *testing.T) {
	m := New(false)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/viewers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viewers/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	m.ViewportChanges.Add(5)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{path="/viewers/{id}"} 3`)
	assert.Contains(t, body, "cosmoview_viewport_changes_total 5")
	assert.False(t, strings.Contains(body, `path="/viewers/a"`))
}
