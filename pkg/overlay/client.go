package overlay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chartsnap/pkg/buildinfo"
	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/httputil"
	"github.com/matzehuels/chartsnap/pkg/observability"
	"github.com/matzehuels/chartsnap/pkg/sink"
)

// DefaultBaseURL is where the processing service listens by default.
const DefaultBaseURL = "http://localhost:5000"

const processPath = "/api/process-template"

// request is the JSON body of a process-template call.
type request struct {
	TemplateFilename string `json:"template_filename"`
	ProcessingParams Params `json:"processing_params,omitempty"`
}

// response is the JSON reply of a process-template call.
type response struct {
	EdgeImage      string            `json:"edge_image,omitempty"`
	ProcessedEdges map[string]string `json:"processed_edges,omitempty"`
}

// Result holds the decoded imagery for one asset.
type Result struct {
	Asset     string
	Edges     []byte
	Processed map[Technique][]byte
	CacheHit  bool
}

// Edge returns the encoded edges processed with t, falling back to the plain
// edge image when t is empty or the service returned nothing for it.
func (r *Result) Edge(t Technique) []byte {
	if b := r.Processed[t]; t != "" && len(b) > 0 {
		return b
	}
	return r.Edges
}

// Client calls the processing service.
type Client struct {
	base     string
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger
	attempts int
	delay    time.Duration
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache caches responses for [cache.TTLOverlay]. A nil keyer uses the
// default keyer.
func WithCache(cc cache.Cache, keyer cache.Keyer) ClientOption {
	return func(c *Client) {
		if cc != nil {
			c.cache = cc
		}
		if keyer != nil {
			c.keyer = keyer
		}
	}
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     httputil.NewHTTPClient(httputil.DefaultTimeout),
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		logger:   log.Default(),
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base }

// ProcessTemplate processes the asset with params (all techniques when nil).
func (c *Client) ProcessTemplate(ctx context.Context, asset string, params Params, refresh bool) (*Result, error) {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty template filename")
	}
	if err := errors.ValidatePath(asset); err != nil {
		return nil, err
	}
	if params == nil {
		params = DefaultParams()
	}

	key := c.keyer.OverlayKey(asset, strings.Join(params.techniques(), "+"), params.flatten())
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var resp response
			if json.Unmarshal(data, &resp) == nil {
				observability.Cache().OnCacheHit(ctx, "overlay")
				res, err := decode(asset, resp)
				if err == nil {
					res.CacheHit = true
				}
				return res, err
			}
		}
		observability.Cache().OnCacheMiss(ctx, "overlay")
	}

	var raw []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		raw, err = c.post(ctx, request{TemplateFilename: asset, ProcessingParams: params})
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, asNetworkError(err, asset)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode response for %q", asset)
	}
	res, err := decode(asset, resp)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, raw, cache.TTLOverlay); err == nil {
		observability.Cache().OnCacheSet(ctx, "overlay", len(raw))
	}
	c.logger.Debug("processed overlay asset", "asset", asset, "techniques", len(res.Processed))
	return res, nil
}

func (c *Client) post(ctx context.Context, body request) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.base + processPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	observability.HTTP().OnRequest(ctx, http.MethodPost, u.Host, u.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, u.Host, u.Path, err)
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "POST %s", u.Path)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodPost, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response")}
	}
	return data, nil
}

func decode(asset string, resp response) (*Result, error) {
	res := &Result{Asset: asset, Processed: make(map[Technique][]byte, len(resp.ProcessedEdges))}
	var err error
	if resp.EdgeImage != "" {
		if res.Edges, err = decodeImage(resp.EdgeImage); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "edge image for %q", asset)
		}
	}
	for name, data := range resp.ProcessedEdges {
		if data == "" {
			continue
		}
		b, err := decodeImage(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "%s edges for %q", name, asset)
		}
		res.Processed[Technique(name)] = b
	}
	return res, nil
}

// decodeImage accepts bare base64 or a data URI.
func decodeImage(s string) ([]byte, error) {
	if sink.IsDataURI(s) {
		return sink.DecodeDataURI(s)
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// asNetworkError makes sure callers see NETWORK_ERROR for any failure of the
// remote call.
func asNetworkError(err error, asset string) error {
	if errors.Is(err, errors.ErrCodeNetwork) {
		return err
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "process template %q", asset)
}
