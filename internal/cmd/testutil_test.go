// Test utilities for the artlens CLI commands.
//
// setupTestEnvWithHandler starts one httptest server that stands in for both
// services: Artsy routes live under /artsy/ and Imagga routes under /imagga/.
// Response bodies may contain {{host}}, replaced with the server's host:port
// so hyperlinks in fixtures point back at the fake.
//
//	handler := newRouteHandler().
//	    On("GET", "/artsy/search", jsonResponse(200, searchFixture))
//	setupTestEnvWithHandler(t, handler)
//
//	output := captureStdout(t, func() {
//	    if err := Execute(context.Background(), []string{"search", "warhol"}); err != nil {
//	        t.Fatalf("search failed: %v", err)
//	    }
//	})
package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/artlens/artlens/internal/config"
)

// captureStdout executes a function and captures its stdout output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// captureStderr executes a function and captures its stderr output.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	_ = w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testEnv exposes the fake server and the in-memory keyring.
type testEnv struct {
	server *httptest.Server
	ring   keyring.Keyring
	dir    string
}

// setupTestEnv isolates a test from the user's environment: credentials
// come from env, caching is off and config/keyring point at temp state.
// No server is started.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	for _, key := range []string{
		config.EnvImaggaKey, config.EnvImaggaSecret, config.EnvRedisAddr,
		"ARTLENS_NO_CACHE", "ARTLENS_RATE_LIMIT_RPS", "ARTLENS_FORCE_INTERACTIVE",
		config.EnvArtsyURL, config.EnvImaggaURL,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvArtsyToken, "test-artsy-token")
	t.Setenv(config.EnvImaggaToken, "Basic dGVzdDp0ZXN0")
	t.Setenv(config.EnvCache, config.CacheNone)
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.toml"))
	t.Setenv("ARTLENS_OUTPUT", "text")
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)

	return &testEnv{ring: ring, dir: dir}
}

// setupTestEnvWithHandler is setupTestEnv plus a fake server wired in as
// both the Artsy and the Imagga base URL.
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	env := setupTestEnv(t)
	env.server = httptest.NewServer(handler)
	t.Cleanup(env.server.Close)

	t.Setenv(config.EnvArtsyURL, env.server.URL+"/artsy/")
	t.Setenv(config.EnvImaggaURL, env.server.URL+"/imagga/")
	return env
}

// jsonResponse returns body with {{host}} expanded to the request host.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{host}}", r.Host)))
	}
}

// pngResponse serves a small PNG.
func pngResponse(t *testing.T) http.HandlerFunc {
	data := testPNG(t)
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// routeHandler routes requests by exact "METHOD PATH" and records hits.
// Unmatched requests get a 404.
type routeHandler struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: map[string]http.HandlerFunc{}, hits: map[string]int{}}
}

// On registers a handler for method and path. Returns h for chaining.
func (h *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	h.routes[method+" "+path] = handler
	return h
}

func (h *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	h.mu.Lock()
	handler, ok := h.routes[key]
	h.hits[key]++
	h.mu.Unlock()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"error","message":"Not Found"}`))
		return
	}
	handler(w, r)
}

// Hits reports how many requests reached method and path.
func (h *routeHandler) Hits(method, path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[method+" "+path]
}

// decodeItems extracts the items array from {"items": [...]} output.
func decodeItems(t *testing.T, output string) []map[string]any {
	t.Helper()
	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("failed to parse JSON output: %v\noutput: %s", err, output)
	}
	return payload.Items
}

const (
	searchFixture = `{"_embedded":{"results":[
	  {"type":"artist","title":"Andy Warhol","_links":{"self":{"href":"http://{{host}}/artsy/artists/warhol"}}},
	  {"type":"artwork","title":"Campbell's Soup Cans","_links":{"self":{"href":"http://{{host}}/artsy/artworks/soup"}}},
	  {"type":"artist","title":"Andy Warhola","_links":{"self":{"href":"http://{{host}}/artsy/artists/warhola"}}}
	]}}`

	artistFixture = `{"name":"Andy Warhol","_links":{"artworks":{"href":"http://{{host}}/artsy/artworks"}}}`

	artworksFixture = `{"_embedded":{"artworks":[
	  {"title":"Marilyn Diptych","medium":"Acrylic on canvas","_links":{"image":{"href":"http://{{host}}/img/marilyn/{image_version}.png","templated":true}}},
	  {"title":"Untitled","medium":"","_links":{"image":{"href":"http://{{host}}/img/untitled/{image_version}.png","templated":true}}},
	  {"title":"No Medium","_links":{"image":{"href":"http://{{host}}/img/x/{image_version}.png"}}}
	]}}`

	uploadFixture  = `{"status":"success","uploaded":[{"id":"c0ffee","filename":"image.jpg"}]}`
	taggingFixture = `{"results":[{"image":"c0ffee","tags":[
	  {"tag":"painting","confidence":61.2},
	  {"tag":"art","confidence":72.9},
	  {"tag":"portrait","confidence":18.4}
	]}]}`
)

// artsyRoutes registers search, artist and artworks routes.
func artsyRoutes(h *routeHandler) *routeHandler {
	return h.
		On("GET", "/artsy/search", jsonResponse(200, searchFixture)).
		On("GET", "/artsy/artists/warhol", jsonResponse(200, artistFixture)).
		On("GET", "/artsy/artworks", jsonResponse(200, artworksFixture))
}

// imaggaRoutes registers the upload and tagging routes.
func imaggaRoutes(h *routeHandler) *routeHandler {
	return h.
		On("POST", "/imagga/content", jsonResponse(200, uploadFixture)).
		On("GET", "/imagga/tagging", jsonResponse(200, taggingFixture))
}

// writeConfig writes contents to the test's config.toml.
func writeConfig(t *testing.T, env *testEnv, contents string) string {
	t.Helper()
	path := filepath.Join(env.dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// unwrapHandled returns the original error behind a handledError.
func unwrapHandled(err error) error {
	if h, ok := err.(*handledError); ok {
		return h.err
	}
	return err
}
