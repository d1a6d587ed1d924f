package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/catalog"
	"github.com/kiesman99/cosmoview/internal/tiler"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

const testDescriptor = `<?xml version="1.0" encoding="UTF-8"?>
<Image xmlns="http://schemas.microsoft.com/deepzoom/2008" TileSize="254" Overlap="1" Format="jpg">
  <Size Width="4000" Height="2000"/>
</Image>`

// setupTileServer serves testDescriptor for every .dzi path except the ones
// containing "missing"
func setupTileServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".dzi") || strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, testDescriptor)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// Test server setup
func setupTestServer(t *testing.T) (*httptest.Server, *httptest.Server) {
	t.Helper()
	tiles := setupTileServer(t)

	cat, err := catalog.Load("../catalog/testdata/catalog.yaml")
	require.NoError(t, err)

	opts := viewer.DefaultOptions()
	opts.AnimationTime = 0
	opts.Container = viewport.Size{Width: 800, Height: 600}

	apiServer := NewServer(Config{
		Version:           "1.0.0-test",
		Timeout:           5 * time.Second,
		Viewer:            opts,
		HighlightDuration: time.Minute,
		Catalog:           cat,
		CatalogBaseURL:    tiles.URL,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	server := httptest.NewServer(apiServer.Handler())
	t.Cleanup(func() {
		server.Close()
		apiServer.Close()
	})
	return server, tiles
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func requireStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", status, resp.StatusCode, string(body))
	}
}

// createViewer creates a viewer for url and waits until it left the
// loading state
func createViewer(t *testing.T, base string, req api.CreateViewerRequest) api.ViewerResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, base+"/api/v1/viewers", req)
	requireStatus(t, resp, http.StatusCreated)
	created := decode[api.ViewerResponse](t, resp)

	var got api.ViewerResponse
	require.Eventually(t, func() bool {
		resp := doJSON(t, http.MethodGet, base+"/api/v1/viewers/"+created.Id, nil)
		got = decode[api.ViewerResponse](t, resp)
		return got.Status != api.Loading
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

func readyViewer(t *testing.T, server, tiles *httptest.Server) api.ViewerResponse {
	t.Helper()
	url := tiles.URL + "/mars.dzi"
	v := createViewer(t, server.URL, api.CreateViewerRequest{Url: &url})
	require.Equal(t, api.Ready, v.Status)
	return v
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/health", nil)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	health := decode[api.HealthResponse](t, resp)
	assert.Equal(t, api.Healthy, health.Status)
	require.NotNil(t, health.Version)
	assert.Equal(t, "1.0.0-test", *health.Version)
	require.NotNil(t, health.Viewers)
	assert.Zero(t, *health.Viewers)
}

func TestLegacyHealthRedirect(t *testing.T) {
	server, _ := setupTestServer(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/api/v1/health", resp.Header.Get("Location"))
}

func TestViewerLifecycle(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)

	require.NotNil(t, v.Image)
	assert.Equal(t, 4000, v.Image.Width)
	assert.Equal(t, 2000, v.Image.Height)
	assert.Equal(t, 12, v.Image.MaxLevel)
	require.NotNil(t, v.State)
	assert.InDelta(t, 0.5, v.State.Center.X, 1e-9)
	assert.InDelta(t, 0.25, v.State.Center.Y, 1e-9)
	assert.InDelta(t, 1.0, v.State.Zoom, 1e-9)
	require.NotNil(t, v.VisibleImageRect)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers", nil)
	requireStatus(t, resp, http.StatusOK)
	list := decode[[]api.ViewerResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, v.Id, list[0].Id)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/v1/viewers/"+v.Id, nil)
	requireStatus(t, resp, http.StatusNoContent)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers/"+v.Id, nil)
	requireStatus(t, resp, http.StatusNotFound)
	errResp := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", errResp.Error)
	assert.NotNil(t, errResp.RequestId)
}

func TestViewerActions(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	actionURL := server.URL + "/api/v1/viewers/" + v.Id + "/actions"

	zoom := 2.0
	rotation := 90
	center := api.Point{X: 0.25, Y: 0.1}
	noAnimation := false

	testCases := []struct {
		name   string
		action api.ViewerAction
		check  func(t *testing.T, got api.ViewerResponse)
	}{
		{
			name:   "zoom to",
			action: api.ViewerAction{Action: api.ZoomTo, Zoom: &zoom, Animate: &noAnimation},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.InDelta(t, 2.0, got.State.Zoom, 1e-9)
			},
		},
		{
			name:   "zoom in",
			action: api.ViewerAction{Action: api.ZoomIn},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.InDelta(t, 3.0, got.State.Zoom, 1e-9)
			},
		},
		{
			name:   "pan to",
			action: api.ViewerAction{Action: api.PanTo, Center: &center, Animate: &noAnimation},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.InDelta(t, 0.25, got.State.Center.X, 1e-9)
				assert.InDelta(t, 0.1, got.State.Center.Y, 1e-9)
			},
		},
		{
			name:   "set rotation",
			action: api.ViewerAction{Action: api.SetRotation, Rotation: &rotation},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.Equal(t, 90, got.State.Rotation)
			},
		},
		{
			name:   "rotate",
			action: api.ViewerAction{Action: api.Rotate},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.Equal(t, 180, got.State.Rotation)
			},
		},
		{
			name:   "resize",
			action: api.ViewerAction{Action: api.Resize, Container: &api.Size{Width: 400, Height: 300}},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.Equal(t, api.Size{Width: 400, Height: 300}, got.Container)
			},
		},
		{
			name:   "home",
			action: api.ViewerAction{Action: api.Home},
			check: func(t *testing.T, got api.ViewerResponse) {
				assert.InDelta(t, 0.5, got.State.Center.X, 1e-9)
				assert.Equal(t, 180, got.State.Rotation)
			},
		},
	}

	// cases run in order; each starts from the previous state
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, actionURL, tc.action)
			requireStatus(t, resp, http.StatusOK)
			got := decode[api.ViewerResponse](t, resp)
			require.NotNil(t, got.State)
			assert.False(t, got.Animating)
			tc.check(t, got)
		})
	}
}

func TestViewerActionValidationErrors(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	actionURL := server.URL + "/api/v1/viewers/" + v.Id + "/actions"

	negative := -1.0
	badRotation := 45

	testCases := []struct {
		name          string
		body          any
		expectedError string
	}{
		{"invalid json", `{"action":`, "INVALID_JSON"},
		{"unknown action", api.ViewerAction{Action: "spin"}, "VALIDATION_ERROR"},
		{"zoom to without zoom", api.ViewerAction{Action: api.ZoomTo}, "VALIDATION_ERROR"},
		{"negative zoom", api.ViewerAction{Action: api.ZoomTo, Zoom: &negative}, "VALIDATION_ERROR"},
		{"pan without center", api.ViewerAction{Action: api.PanTo}, "VALIDATION_ERROR"},
		{"odd rotation", api.ViewerAction{Action: api.SetRotation, Rotation: &badRotation}, "VALIDATION_ERROR"},
		{"empty container", api.ViewerAction{Action: api.Resize, Container: &api.Size{}}, "VALIDATION_ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, actionURL, tc.body)
			requireStatus(t, resp, http.StatusBadRequest)
			errResp := decode[map[string]interface{}](t, resp)
			assert.Equal(t, tc.expectedError, errResp["error"])
		})
	}
}

func TestCreateViewerValidation(t *testing.T) {
	server, _ := setupTestServer(t)

	testCases := []struct {
		name           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{"no source", api.CreateViewerRequest{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty container", map[string]any{"url": "x.dzi", "container": map[string]int{"width": 0, "height": 10}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown catalog object", api.CreateViewerRequest{Ref: &api.CatalogRef{Collection: "milky-way", Group: "sol", Object: "pluto"}}, http.StatusNotFound, "NOT_FOUND"},
		{"broken json", "{", http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers", tc.body)
			requireStatus(t, resp, tc.expectedStatus)
			errResp := decode[map[string]interface{}](t, resp)
			assert.Equal(t, tc.expectedError, errResp["error"])
		})
	}
}

func TestCreateViewerRejectsLocalSources(t *testing.T) {
	server, _ := setupTestServer(t)

	private := filepath.Join(t.TempDir(), "private.dzi")
	require.NoError(t, os.WriteFile(private, []byte(testDescriptor), 0o600))

	for _, source := range []string{private, "file://" + private, "/etc/hostname", "ftp://tiles.example.com/mars.dzi", "http:///mars.dzi"} {
		t.Run(source, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers", api.CreateViewerRequest{Url: &source})
			requireStatus(t, resp, http.StatusBadRequest)
			errResp := decode[api.ErrorResponse](t, resp)
			assert.Equal(t, "VALIDATION_ERROR", errResp.Error)
			assert.NotContains(t, errResp.Message, "no such file")
		})
	}

	// comparison sources go through the same check
	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/comparisons", api.CreateComparisonRequest{
		Left: &api.ImageSource{Url: &private},
	})
	requireStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers", nil)
	assert.Empty(t, decode[[]api.ViewerResponse](t, resp))
}

func TestCreateViewerAllowedSources(t *testing.T) {
	tiles := setupTileServer(t)
	apiServer := NewServer(Config{
		Viewer:         viewer.DefaultOptions(),
		AllowedSources: []string{tiles.URL + "/dzi/"},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	server := httptest.NewServer(apiServer.Handler())
	t.Cleanup(func() {
		server.Close()
		apiServer.Close()
	})

	allowed := tiles.URL + "/dzi/mars.dzi"
	v := createViewer(t, server.URL, api.CreateViewerRequest{Url: &allowed})
	assert.Equal(t, api.Ready, v.Status)

	other := "https://elsewhere.example.com/dzi/mars.dzi"
	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers", api.CreateViewerRequest{Url: &other})
	requireStatus(t, resp, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", decode[api.ErrorResponse](t, resp).Error)
}

func TestViewerTileSourceError(t *testing.T) {
	server, tiles := setupTestServer(t)

	url := tiles.URL + "/missing.dzi"
	v := createViewer(t, server.URL, api.CreateViewerRequest{Url: &url})
	assert.Equal(t, api.Failed, v.Status)
	require.NotNil(t, v.Error)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers/"+v.Id+"/actions",
		api.ViewerAction{Action: api.ZoomIn})
	requireStatus(t, resp, http.StatusBadGateway)

	errResp := decode[api.TileSourceErrorResponse](t, resp)
	assert.Equal(t, "TILE_SOURCE_ERROR", errResp.Error)
	assert.Equal(t, url, errResp.Url)
	require.NotNil(t, errResp.StatusCode)
	assert.Equal(t, http.StatusNotFound, *errResp.StatusCode)
}

func TestViewerFromCatalog(t *testing.T) {
	server, tiles := setupTestServer(t)

	v := createViewer(t, server.URL, api.CreateViewerRequest{
		Ref: &api.CatalogRef{Collection: "milky-way", Group: "sol", Object: "earth"},
	})
	assert.Equal(t, api.Ready, v.Status)
	assert.Equal(t, tiles.URL+"/dzi/earth/blue-marble.dzi", v.Url)
	require.NotNil(t, v.Name)
	assert.Equal(t, "Blue Marble 2012", *v.Name)
}

func TestConvertPoint(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	convertURL := server.URL + "/api/v1/viewers/" + v.Id + "/convert"

	resp := doJSON(t, http.MethodGet, convertURL+"?x=2000&y=1000&from=image", nil)
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.ConvertResponse](t, resp)
	assert.InDelta(t, 400, got.Screen.X, 1e-6)
	assert.InDelta(t, 300, got.Screen.Y, 1e-6)
	assert.True(t, got.InsideImage)

	// home fits 4000px into 800px, so one screen pixel is five image pixels
	resp = doJSON(t, http.MethodGet, convertURL+"?x=0&y=300", nil)
	requireStatus(t, resp, http.StatusOK)
	got = decode[api.ConvertResponse](t, resp)
	assert.InDelta(t, 0, got.Image.X, 1e-6)
	assert.InDelta(t, 1000, got.Image.Y, 1e-6)

	resp = doJSON(t, http.MethodGet, convertURL+"?x=1&y=1&from=tile", nil)
	requireStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodGet, convertURL+"?x=abc&y=1", nil)
	requireStatus(t, resp, http.StatusBadRequest)
}

func TestHighlight(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	highlightURL := server.URL + "/api/v1/viewers/" + v.Id + "/highlight"

	resp := doJSON(t, http.MethodGet, highlightURL, nil)
	requireStatus(t, resp, http.StatusOK)
	assert.False(t, decode[api.HighlightResponse](t, resp).Accepted)

	resp = doJSON(t, http.MethodPost, highlightURL, api.HighlightRequest{Name: "Olympus Mons", X: 1000, Y: 500})
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.HighlightResponse](t, resp)
	require.True(t, got.Accepted)
	require.NotNil(t, got.Highlight)
	assert.Equal(t, "Olympus Mons", got.Highlight.Name)
	// the viewer flies to the point, so it ends up in the middle
	assert.InDelta(t, 400, got.Highlight.Screen.X, 1e-6)
	assert.InDelta(t, 300, got.Highlight.Screen.Y, 1e-6)
	assert.True(t, got.Highlight.Visible)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers/"+v.Id, nil)
	state := decode[api.ViewerResponse](t, resp).State
	require.NotNil(t, state)
	assert.InDelta(t, DefaultHighlightZoom, state.Zoom, 1e-9)

	resp = doJSON(t, http.MethodGet, highlightURL, nil)
	requireStatus(t, resp, http.StatusOK)
	current := decode[api.HighlightResponse](t, resp)
	assert.True(t, current.Accepted)
	require.NotNil(t, current.Highlight)
	assert.Equal(t, "Olympus Mons", current.Highlight.Name)
}

func TestHighlightNotReady(t *testing.T) {
	server, tiles := setupTestServer(t)

	url := tiles.URL + "/missing.dzi"
	v := createViewer(t, server.URL, api.CreateViewerRequest{Url: &url})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers/"+v.Id+"/highlight",
		api.HighlightRequest{Name: "nowhere", X: 1, Y: 1})
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.HighlightResponse](t, resp)
	assert.False(t, got.Accepted)
	assert.Nil(t, got.Highlight)
}

func TestAnnotations(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	notesURL := server.URL + "/api/v1/viewers/" + v.Id + "/annotations"

	resp := doJSON(t, http.MethodPost, notesURL, api.AnnotationCreate{X: 10, Y: 20})
	requireStatus(t, resp, http.StatusCreated)
	first := decode[api.Annotation](t, resp)
	assert.Equal(t, "New Label", first.Label)
	assert.NotEmpty(t, first.Color)

	label := "crater"
	resp = doJSON(t, http.MethodPost, notesURL, api.AnnotationCreate{X: 30, Y: 40, Label: &label})
	requireStatus(t, resp, http.StatusCreated)
	second := decode[api.Annotation](t, resp)

	resp = doJSON(t, http.MethodPatch, notesURL+"/"+first.Id, api.AnnotationUpdate{Label: "ridge"})
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, "ridge", decode[api.Annotation](t, resp).Label)

	resp = doJSON(t, http.MethodGet, notesURL, nil)
	requireStatus(t, resp, http.StatusOK)
	list := decode[[]api.Annotation](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "ridge", list[0].Label)
	assert.Equal(t, "crater", list[1].Label)

	resp = doJSON(t, http.MethodDelete, notesURL+"/"+second.Id, nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp = doJSON(t, http.MethodDelete, notesURL+"/"+second.Id, nil)
	requireStatus(t, resp, http.StatusNotFound)

	resp = doJSON(t, http.MethodDelete, notesURL, nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp = doJSON(t, http.MethodGet, notesURL, nil)
	assert.Empty(t, decode[[]api.Annotation](t, resp))
}

func TestHudCursor(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)
	base := server.URL + "/api/v1/viewers/" + v.Id

	resp := doJSON(t, http.MethodGet, base+"/hud", nil)
	requireStatus(t, resp, http.StatusOK)
	hud := decode[api.HudReadout](t, resp)
	assert.False(t, hud.HasCursor)
	assert.InDelta(t, 1.0, hud.Zoom, 1e-9)

	resp = doJSON(t, http.MethodPut, base+"/cursor", api.Point{X: 400, Y: 300})
	requireStatus(t, resp, http.StatusOK)
	hud = decode[api.HudReadout](t, resp)
	require.True(t, hud.HasCursor)
	require.NotNil(t, hud.ImageX)
	require.NotNil(t, hud.ImageY)
	assert.Equal(t, 2000, *hud.ImageX)
	assert.Equal(t, 1000, *hud.ImageY)
	assert.True(t, hud.InsideImage)

	resp = doJSON(t, http.MethodDelete, base+"/cursor", nil)
	requireStatus(t, resp, http.StatusOK)
	hud = decode[api.HudReadout](t, resp)
	assert.False(t, hud.HasCursor)
	assert.Nil(t, hud.ImageX)
}

func TestViewerEvents(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/viewers/" + v.Id + "/events"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/viewers/"+v.Id+"/actions",
		api.ViewerAction{Action: api.ZoomIn})
	requireStatus(t, resp, http.StatusOK)

	for {
		var msg EventMessage
		require.NoError(t, wsjson.Read(ctx, c, &msg))
		assert.Equal(t, v.Id, msg.Viewer)
		if msg.Type == viewer.EventViewportChange {
			assert.InDelta(t, 1.5, msg.State.Zoom, 1e-9)
			assert.Equal(t, api.Size{Width: 800, Height: 600}, msg.Container)
			break
		}
	}

	// deleting the viewer ends the stream
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/v1/viewers/"+v.Id, nil)
	requireStatus(t, resp, http.StatusNoContent)

	for {
		var msg EventMessage
		if err = wsjson.Read(ctx, c, &msg); err != nil {
			break
		}
	}
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func TestViewerEventsNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers/nope/events", nil)
	requireStatus(t, resp, http.StatusNotFound)
}

func createComparison(t *testing.T, base string, req api.CreateComparisonRequest) api.ComparisonResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, base+"/api/v1/comparisons", req)
	requireStatus(t, resp, http.StatusCreated)
	created := decode[api.ComparisonResponse](t, resp)

	var got api.ComparisonResponse
	require.Eventually(t, func() bool {
		resp := doJSON(t, http.MethodGet, base+"/api/v1/comparisons/"+created.Id, nil)
		got = decode[api.ComparisonResponse](t, resp)
		return got.Left.Status == api.Ready && got.Right.Status == api.Ready
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

func TestComparisonOverlay(t *testing.T) {
	server, tiles := setupTestServer(t)

	mode := api.ComparisonMode("overlay")
	leftURL, rightURL := tiles.URL+"/a.dzi", tiles.URL+"/b.dzi"
	cmp := createComparison(t, server.URL, api.CreateComparisonRequest{
		Mode:  &mode,
		Left:  &api.ImageSource{Url: &leftURL},
		Right: &api.ImageSource{Url: &rightURL},
	})
	assert.Equal(t, mode, cmp.Mode)
	assert.False(t, cmp.Left.ReadOnly)
	assert.True(t, cmp.Right.ReadOnly)
	assert.Equal(t, rightURL, cmp.Right.Url)

	base := server.URL + "/api/v1/comparisons/" + cmp.Id

	zoom := 4.0
	resp := doJSON(t, http.MethodPost, base+"/sides/left/actions", api.ViewerAction{Action: api.ZoomTo, Zoom: &zoom})
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.ComparisonResponse](t, resp)
	require.NotNil(t, got.Left.State)
	require.NotNil(t, got.Right.State)
	assert.InDelta(t, 4.0, got.Left.State.Zoom, 1e-9)
	assert.Equal(t, *got.Left.State, *got.Right.State)

	resp = doJSON(t, http.MethodPost, base+"/sides/right/actions", api.ViewerAction{Action: api.ZoomIn})
	requireStatus(t, resp, http.StatusConflict)
	assert.Equal(t, "CONFLICT", decode[api.ErrorResponse](t, resp).Error)

	resp = doJSON(t, http.MethodPost, base+"/sides/middle/actions", api.ViewerAction{Action: api.ZoomIn})
	requireStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodPut, base+"/opacity", api.OpacityRequest{Opacity: 150})
	requireStatus(t, resp, http.StatusOK)
	assert.InDelta(t, 100, decode[api.ComparisonResponse](t, resp).Opacity, 1e-9)
}

func TestComparisonModeSwitch(t *testing.T) {
	server, _ := setupTestServer(t)

	cmp := createComparison(t, server.URL, api.CreateComparisonRequest{
		Ref: &api.CatalogRef{Collection: "milky-way", Group: "sol", Object: "earth"},
	})
	assert.Equal(t, api.ComparisonMode("split"), cmp.Mode)
	assert.False(t, cmp.Right.ReadOnly)
	require.NotNil(t, cmp.Left.Name)
	require.NotNil(t, cmp.Right.Name)
	assert.Equal(t, "Blue Marble 2012", *cmp.Left.Name)
	assert.Equal(t, "Earth at Night", *cmp.Right.Name)

	base := server.URL + "/api/v1/comparisons/" + cmp.Id

	// in split mode both sides are independent
	resp := doJSON(t, http.MethodPost, base+"/sides/right/actions", api.ViewerAction{Action: api.ZoomIn})
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.ComparisonResponse](t, resp)
	assert.InDelta(t, 1.5, got.Right.State.Zoom, 1e-9)
	assert.InDelta(t, 1.0, got.Left.State.Zoom, 1e-9)

	resp = doJSON(t, http.MethodPut, base+"/mode", api.ModeRequest{Mode: "overlay"})
	requireStatus(t, resp, http.StatusOK)
	got = decode[api.ComparisonResponse](t, resp)
	assert.Equal(t, api.ComparisonMode("overlay"), got.Mode)
	assert.True(t, got.Right.ReadOnly)
	assert.Equal(t, cmp.Right.Url, got.Right.Url)

	resp = doJSON(t, http.MethodPut, base+"/mode", api.ModeRequest{Mode: "stacked"})
	requireStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodDelete, base, nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp = doJSON(t, http.MethodGet, base, nil)
	requireStatus(t, resp, http.StatusNotFound)
}

func TestComparisonImages(t *testing.T) {
	server, tiles := setupTestServer(t)

	leftURL := tiles.URL + "/a.dzi"
	cmp := createComparison(t, server.URL, api.CreateComparisonRequest{
		Left: &api.ImageSource{Url: &leftURL},
	})
	// a missing right image compares the left one with itself
	assert.Equal(t, leftURL, cmp.Right.Url)

	base := server.URL + "/api/v1/comparisons/" + cmp.Id
	moon := "moon-1"
	resp := doJSON(t, http.MethodPut, base+"/images", api.ComparisonImagesRequest{
		Right: &api.ImageSource{ImageId: &moon},
	})
	requireStatus(t, resp, http.StatusOK)
	got := decode[api.ComparisonResponse](t, resp)
	assert.Equal(t, tiles.URL+"/dzi/moon/lro-mosaic.dzi", got.Right.Url)
	assert.Equal(t, leftURL, got.Left.Url)

	resp = doJSON(t, http.MethodPut, base+"/images", api.ComparisonImagesRequest{})
	requireStatus(t, resp, http.StatusBadRequest)

	unknown := "pluto-1"
	resp = doJSON(t, http.MethodPut, base+"/images", api.ComparisonImagesRequest{
		Left: &api.ImageSource{ImageId: &unknown},
	})
	requireStatus(t, resp, http.StatusNotFound)
}

func TestComparisonDefaultsToCatalog(t *testing.T) {
	server, tiles := setupTestServer(t)

	cmp := createComparison(t, server.URL, api.CreateComparisonRequest{})
	assert.Equal(t, tiles.URL+"/dzi/earth/blue-marble.dzi", cmp.Left.Url)
	assert.Equal(t, tiles.URL+"/dzi/earth/night-lights.dzi", cmp.Right.Url)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/comparisons", nil)
	requireStatus(t, resp, http.StatusOK)
	assert.Len(t, decode[[]api.ComparisonResponse](t, resp), 1)
}

func TestCatalogEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/catalog/images", nil)
	requireStatus(t, resp, http.StatusOK)
	images := decode[[]api.CatalogImage](t, resp)
	require.NotEmpty(t, images)
	assert.Equal(t, "earth-1", images[0].Id)

	testCases := []struct {
		name           string
		query          string
		expectedStatus int
		expectedImage  string
	}{
		{"object default image", "galaxy=milky-way&system=sol&planet=earth", http.StatusOK, "earth-1"},
		{"explicit image", "galaxy=milky-way&system=sol&planet=earth&image=earth-2", http.StatusOK, "earth-2"},
		{"unknown planet", "galaxy=milky-way&system=sol&planet=vulcan", http.StatusNotFound, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/catalog/resolve?"+tc.query, nil)
			requireStatus(t, resp, tc.expectedStatus)
			if tc.expectedImage == "" {
				return
			}
			entry := decode[api.CatalogEntry](t, resp)
			assert.Equal(t, tc.expectedImage, entry.Image.Id)
			require.NotNil(t, entry.Statistics)
			assert.Equal(t, "Terrestrial", (*entry.Statistics)["type"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, tiles := setupTestServer(t)
	readyViewer(t, server, tiles)

	resp := doJSON(t, http.MethodGet, server.URL+"/metrics", nil)
	requireStatus(t, resp, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "cosmoview_viewers 1")
	assert.Contains(t, text, fmt.Sprintf(`cosmoview_descriptor_loads_total{result=%q} 1`, "ok"))
	assert.Contains(t, text, "http_requests_total")
}

func TestViewerSnapshot(t *testing.T) {
	server, _ := setupTestServer(t)

	src := image.NewRGBA(image.Rect(0, 0, 600, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 600; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	g, err := tiler.New(tiler.DefaultOptions())
	require.NoError(t, err)
	dir := t.TempDir()
	_, err = g.Generate(context.Background(), src, dir, "phobos")
	require.NoError(t, err)

	files := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(files.Close)

	url := files.URL + "/phobos.dzi"
	v := createViewer(t, server.URL, api.CreateViewerRequest{Url: &url})
	require.Equal(t, api.Ready, v.Status)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers/"+v.Id+"/snapshot", nil)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "10", resp.Header.Get("X-Pyramid-Level"))

	shot, err := png.Decode(resp.Body)
	require.NoError(t, err)
	// 600px of image across the 800px container, cropped to the image height
	assert.Equal(t, 800, shot.Bounds().Dx())
	assert.InDelta(t, 533, shot.Bounds().Dy(), 1)
}

func TestViewerSnapshotTileError(t *testing.T) {
	server, tiles := setupTestServer(t)
	v := readyViewer(t, server, tiles)

	// the tile server only knows descriptors
	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/viewers/"+v.Id+"/snapshot", nil)
	requireStatus(t, resp, http.StatusBadGateway)

	errResp := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "TILE_ERROR", errResp.Error)
	require.NotNil(t, errResp.Details)
	assert.NotZero(t, (*errResp.Details)["total_tiles"])
}

func TestCORSHeaders(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodOptions, server.URL+"/api/v1/viewers", nil)
	requireStatus(t, resp, http.StatusOK)

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
}
