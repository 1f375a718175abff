package livra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Backend defines the operations the UI needs from the Livra API.
// This interface is implemented by *Client and can be used for testing.
type Backend interface {
	ListPosts(ctx context.Context, query ListQuery) (PostPage, error)
	FetchPost(ctx context.Context, id string) (Post, error)
	CreatePost(ctx context.Context, token string, post NewPost) (Post, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ExchangeGoogleToken(ctx context.Context, idToken string) (AuthResponse, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// Client talks to the Livra HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	validate  *validator.Validate
}

const (
	defaultBackendURL = "http://127.0.0.1:8000"
	defaultUserAgent  = "livra/0.1"
	requestTimeout    = 10 * time.Second

	// A held-down key can fire several requests per second; keep it bounded.
	requestsPerSecond = 8
	requestBurst      = 8
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit replaces the request limiter. A nil limiter disables limiting.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient builds a Client for the given backend base URL.
func NewClient(backendURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(backendURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		validate:  newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// ListPosts retrieves one page of post summaries.
func (c *Client) ListPosts(ctx context.Context, query ListQuery) (PostPage, error) {
	if c == nil {
		return PostPage{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if search := query.Search; search != "" {
		values.Set("search", search)
	}
	if userID := strings.TrimSpace(query.UserID); userID != "" {
		values.Set("user_id", userID)
	}
	page := query.Page
	if page < 0 {
		page = 0
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(DefaultPageSize))

	rel := &url.URL{Path: "posts", RawQuery: values.Encode()}
	var payload PostPage
	if err := c.doURL(ctx, http.MethodGet, rel, "", nil, &payload); err != nil {
		return PostPage{}, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return PostPage{}, fmt.Errorf("invalid post list: %w", err)
	}
	return payload, nil
}

// FetchPost retrieves a full post by id.
func (c *Client) FetchPost(ctx context.Context, id string) (Post, error) {
	if c == nil {
		return Post{}, fmt.Errorf("client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Post{}, fmt.Errorf("post id required")
	}
	rel := &url.URL{Path: "posts/" + url.PathEscape(id)}
	var payload Post
	if err := c.doURL(ctx, http.MethodGet, rel, "", nil, &payload); err != nil {
		return Post{}, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return Post{}, fmt.Errorf("invalid post: %w", err)
	}
	return payload, nil
}

// CreatePost publishes a new post on behalf of the bearer token owner.
func (c *Client) CreatePost(ctx context.Context, token string, post NewPost) (Post, error) {
	if c == nil {
		return Post{}, fmt.Errorf("client is nil")
	}
	var payload Post
	if err := c.doURL(ctx, http.MethodPost, &url.URL{Path: "posts"}, token, post, &payload); err != nil {
		return Post{}, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return Post{}, fmt.Errorf("invalid post: %w", err)
	}
	return payload, nil
}

// ListTags retrieves the tag catalog.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Tag
	if err := c.doURL(ctx, http.MethodGet, &url.URL{Path: "tags"}, "", nil, &payload); err != nil {
		return nil, err
	}
	tags := payload[:0]
	for _, tag := range payload {
		if err := c.validate.Struct(tag); err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// ExchangeGoogleToken trades an identity-provider credential for a Livra
// access token.
func (c *Client) ExchangeGoogleToken(ctx context.Context, idToken string) (AuthResponse, error) {
	if c == nil {
		return AuthResponse{}, fmt.Errorf("client is nil")
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return AuthResponse{}, fmt.Errorf("identity token required")
	}
	var payload AuthResponse
	if err := c.doURL(ctx, http.MethodPost, &url.URL{Path: "auth/google"}, "", authRequest{Token: idToken}, &payload); err != nil {
		return AuthResponse{}, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return AuthResponse{}, fmt.Errorf("invalid auth response: %w", err)
	}
	return payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, token string, body, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			Path:       "/" + rel.Path,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseBaseURL keeps any path prefix so the backend can live under a
// sub-path; relative request paths are resolved against it.
func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBackendURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse backend url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}
