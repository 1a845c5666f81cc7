package overlay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

func edgePNG(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newServer(t *testing.T, calls *atomic.Int32, status func(n int32) int) *httptest.Server {
	t.Helper()
	edges := edgePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/process-template" {
			http.NotFound(w, r)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if code := status(n); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		resp := response{EdgeImage: edges, ProcessedEdges: map[string]string{}}
		for tech := range req.ProcessingParams {
			resp.ProcessedEdges[string(tech)] = "data:image/png;base64," + edges
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func ok(int32) int { return http.StatusOK }

func TestProcessTemplate(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, ok)

	c, err := NewClient(srv.URL, WithRetry(1, 0))
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.ProcessTemplate(context.Background(), "tree.png", Params{Blur: DefaultParams()[Blur]}, false)
	if err != nil {
		t.Fatalf("ProcessTemplate: %v", err)
	}
	if len(res.Edges) == 0 {
		t.Error("missing edge image")
	}
	if _, ok := res.Processed[Blur]; !ok {
		t.Errorf("processed = %v, want blur", res.Processed)
	}
	img, _, err := image.Decode(bytes.NewReader(res.Edge(Blur)))
	if err != nil {
		t.Fatalf("decode blur edges: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 {
		t.Errorf("width = %d, want 4", b.Dx())
	}
	// Unrequested techniques fall back to the plain edge image.
	if !bytes.Equal(res.Edge(Contour), res.Edges) || !bytes.Equal(res.Edge(""), res.Edges) {
		t.Error("Edge should fall back to the plain edge image")
	}
}

func TestProcessTemplateCached(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, ok)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClient(srv.URL, WithCache(fc, nil), WithRetry(1, 0))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := c.ProcessTemplate(ctx, "tree.png", nil, false); err != nil {
		t.Fatal(err)
	}
	res, err := c.ProcessTemplate(ctx, "tree.png", nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheHit {
		t.Error("second call should hit the cache")
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}

	// Different params are a different key.
	if _, err := c.ProcessTemplate(ctx, "tree.png", Params{Contour: DefaultParams()[Contour]}, false); err != nil {
		t.Fatal(err)
	}
	// Refresh bypasses the cache.
	if _, err := c.ProcessTemplate(ctx, "tree.png", nil, true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestProcessTemplateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, func(n int32) int {
		if n < 3 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})

	c, err := NewClient(srv.URL, WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ProcessTemplate(context.Background(), "tree.png", nil, false); err != nil {
		t.Fatalf("ProcessTemplate: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestProcessTemplateErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, func(int32) int { return http.StatusBadRequest })

	c, err := NewClient(srv.URL, WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ProcessTemplate(context.Background(), "tree.png", nil, false)
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK_ERROR", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx should not be retried, calls = %d", calls.Load())
	}

	// Unreachable service.
	srv.Close()
	_, err = c.ProcessTemplate(context.Background(), "tree.png", nil, false)
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("unreachable error = %v, want NETWORK_ERROR", err)
	}

	if _, err := c.ProcessTemplate(context.Background(), "  ", nil, false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty asset error = %v", err)
	}
	for _, asset := range []string{"../secrets.png", "/etc/passwd", `templates\tree.png`} {
		if _, err := c.ProcessTemplate(context.Background(), asset, nil, false); !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("ProcessTemplate(%q) error = %v, want INVALID_PATH", asset, err)
		}
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Error("expected error for non-http URL")
	}
	c, err := NewClient("")
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}

func TestParseTechnique(t *testing.T) {
	if tech, err := ParseTechnique(" Blur "); err != nil || tech != Blur {
		t.Errorf("ParseTechnique = %v, %v", tech, err)
	}
	if _, err := ParseTechnique("sharpen"); err == nil {
		t.Error("expected error for unknown technique")
	}
}
