package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/readinglist/loggers"
	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	tokenTTL       = 5 * time.Minute
	// bodies bigger than this are rejected with ErrResponseTooLarge
	maxResponseBytes = 8 << 20
)

// BooksClient talks to the remote book store over HTTP. Every call is a single
// request; nothing is retried.
type BooksClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	jwtSecret  []byte
	jwtSubject string
	limiter    *rate.Limiter
	maxBody    int64
	log        logrus.FieldLogger
}

type ClientOption func(*BooksClient)

// WithHTTPClient swaps in hc, e.g. for a custom transport. Its Timeout is
// kept unless WithTimeout comes after it.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *BooksClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout replaces the default 15s per-request timeout. Zero disables it.
// A client from WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *BooksClient) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithBearerToken sends a fixed token in the Authorization header.
func WithBearerToken(token string) ClientOption {
	return func(c *BooksClient) { c.token = token }
}

// WithJWTSecret mints a short-lived HS256 token per request. It wins over WithBearerToken.
func WithJWTSecret(secret []byte, subject string) ClientOption {
	return func(c *BooksClient) {
		c.jwtSecret = secret
		c.jwtSubject = subject
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 leaves them unthrottled.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *BooksClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *BooksClient) { c.log = log }
}

func NewBooksClient(baseURL string, opts ...ClientOption) (*BooksClient, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: want http(s)://host", baseURL)
	}
	c := &BooksClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxBody:    maxResponseBytes,
		log:        loggers.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListBooks fetches the full collection. A body that is not a JSON array is a
// *MalformedResponseError.
func (c *BooksClient) ListBooks(ctx context.Context) ([]models.Book, error) {
	const op = "list books"
	body, err := c.do(ctx, op, http.MethodGet, "books", nil)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Op: op, Err: fmt.Errorf("expected a JSON array, got %s", preview(trimmed))}
	}
	books := []models.Book{}
	if err := json.Unmarshal(trimmed, &books); err != nil {
		return nil, &MalformedResponseError{Op: op, Err: err}
	}
	return books, nil
}

func (c *BooksClient) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	const op = "get book"
	body, err := c.do(ctx, op, http.MethodGet, bookPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeBook(op, body)
}

// CreateBook returns the entity with the id and timestamps the store assigned.
func (c *BooksClient) CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error) {
	const op = "create book"
	body, err := c.do(ctx, op, http.MethodPost, "books", payload)
	if err != nil {
		return nil, err
	}
	return decodeBook(op, body)
}

func (c *BooksClient) UpdateBook(ctx context.Context, id int64, payload models.BookUpdate) (*models.Book, error) {
	const op = "update book"
	body, err := c.do(ctx, op, http.MethodPut, bookPath(id), payload)
	if err != nil {
		return nil, err
	}
	return decodeBook(op, body)
}

// DeleteBook ignores any response body.
func (c *BooksClient) DeleteBook(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete book", http.MethodDelete, bookPath(id), nil)
	return err
}

func (c *BooksClient) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	auth, err := c.authorization()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	log := c.log.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"path":       "/" + path,
		"request_id": requestID,
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("remote request failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		log.WithError(err).Warn("reading remote response failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	if int64(len(data)) > c.maxBody {
		log.WithField("limit", c.maxBody).Warn("remote response too large")
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody)}
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
		log.Warn(rerr.Message)
		return nil, rerr
	}
	log.Debug("remote request done")
	return data, nil
}

func (c *BooksClient) authorization() (string, error) {
	if len(c.jwtSecret) > 0 {
		tok, err := utils.SignToken(c.jwtSecret, c.jwtSubject, "", tokenTTL)
		if err != nil {
			return "", fmt.Errorf("sign token: %w", err)
		}
		return "Bearer " + tok, nil
	}
	if c.token != "" {
		return "Bearer " + c.token, nil
	}
	return "", nil
}

func bookPath(id int64) string {
	return "books/" + strconv.FormatInt(id, 10)
}

func decodeBook(op string, body []byte) (*models.Book, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedResponseError{Op: op, Err: fmt.Errorf("expected a JSON object, got %s", preview(trimmed))}
	}
	var book models.Book
	if err := json.Unmarshal(trimmed, &book); err != nil {
		return nil, &MalformedResponseError{Op: op, Err: err}
	}
	return &book, nil
}

// errorMessage pulls a message out of {"detail": ...}, {"error": ...} or
// {"message": ...} bodies and falls back to the status text.
func errorMessage(body []byte, status int) string {
	var env struct {
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		for _, raw := range []json.RawMessage{env.Detail, env.Error, env.Message} {
			if len(raw) == 0 || string(raw) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return s
			}
			return string(raw)
		}
	}
	return http.StatusText(status)
}

func preview(b []byte) string {
	if len(b) == 0 {
		return "an empty body"
	}
	if len(b) > 64 {
		return strconv.Quote(string(b[:64])) + "..."
	}
	return strconv.Quote(string(b))
}
