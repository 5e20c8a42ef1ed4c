package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/dto"
	bardichttp "github.com/aretw0/bardic/pkg/adapters/http"
	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOpenAPI_CoversRoutes(t *testing.T) {
	doc, err := bardichttp.LoadOpenAPI(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		"/api/health",
		"/api/stories",
		"/api/story/start",
		"/api/story/{session}",
		"/api/story/{session}/current",
		"/api/story/{session}/info",
		"/api/story/{session}/events",
		"/api/story/{session}/choose",
		"/api/story/{session}/inputs",
		"/api/story/{session}/save",
		"/api/story/{session}/load",
		"/api/saves",
		"/api/saves/{id}",
	} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}
}

func validatingServer(t *testing.T) http.Handler {
	t.Helper()
	doc, err := compiler.Compile(story)
	require.NoError(t, err)
	n := 0
	mgr := session.NewManager(
		memory.NewLoader(map[string]*domain.Document{"mine": doc}),
		memory.NewStore(),
		session.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
	)
	return bardichttp.NewHandler(mgr, bardichttp.WithRequestValidation())
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_RequestValidation(t *testing.T) {
	h := validatingServer(t)

	w := postJSON(h, "/api/story/start", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.Error](t, w).Error, "story_id")

	w = postJSON(h, "/api/story/start", `{"story_id":"mine"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(h, "/api/story/s1/choose", `{"index":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(h, "/api/story/s1/choose", `{"index":"first"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(h, "/api/story/s1/choose", `{"index":0}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Dig", decode[dto.Passage](t, w).PassageID)
}

func TestServer_ServesSpec(t *testing.T) {
	h := validatingServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title: Bardic API")
}
