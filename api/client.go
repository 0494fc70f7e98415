// ABOUTME: HTTP client wrapper for the CRM REST backend
// ABOUTME: Attaches JSON and bearer headers and normalizes every reply into a Response
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
)

// Client talks to the REST backend. Each call is independent: no retries,
// no backoff and no de-duplication.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	verbose    bool
	logger     *log.Logger
	now        func() time.Time

	Auth          *AuthService
	Contacts      *ContactService
	Companies     *CompanyService
	Deals         *DealService
	Activities    *ActivityService
	ContactNotes  *NoteService
	ActivityNotes *NoteService
	Shares        *ShareService
	Users         *UserService
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithVerbose logs one line per request.
func WithVerbose(v bool) Option {
	return func(c *Client) { c.verbose = v }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock replaces time.Now for client-side date logic such as the overdue filter.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client for baseURL. A nil session gets an in-memory one.
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewMemorySession()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
		logger:     log.New(os.Stderr, "", log.LstdFlags),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c: c}
	c.Contacts = &ContactService{c: c}
	c.Companies = &CompanyService{c: c}
	c.Deals = &DealService{c: c}
	c.Activities = &ActivityService{c: c}
	c.ContactNotes = &NoteService{c: c, endpoint: "/contact-notes", parentKey: "contactId"}
	c.ActivityNotes = &NoteService{c: c, endpoint: "/activity-notes", parentKey: "activityId"}
	c.Shares = &ShareService{c: c}
	c.Users = &UserService{c: c}
	return c
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOptions describes one call. Method defaults to GET.
type RequestOptions struct {
	Method string
	Query  url.Values
	Body   any
}

// Response is the uniform result of a call. Exactly one of Data or Error is
// meaningful; Status is 0 when the request never reached the server.
type Response struct {
	Data   json.RawMessage
	Error  string
	Fields map[string]string
	Status int
}

// OK reports a 2xx response.
func (r Response) OK() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// Err converts a failed response into an *Error.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Error, Fields: r.Fields}
}

// Decode unmarshals the body of a successful response into v.
func (r Response) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Request performs a call against endpoint. It never returns a Go error:
// network failures come back with Status 0, non-2xx replies with the
// server's message or a generic one.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) Response {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(opts.Body); err != nil {
			return Response{Error: fmt.Sprintf("failed to encode request: %v", err)}
		}
		body = buf
	}

	target := c.baseURL + endpoint
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := ulid.Make().String()
	req.Header.Set("X-Request-ID", requestID)
	if token := c.session.Token(); token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("%s %s failed after %s [%s]: %v", method, endpoint, time.Since(start).Round(time.Millisecond), requestID, err)
		return Response{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	c.logf("%s %s -> %d in %s [%s]", method, endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond), requestID)
	if err != nil {
		return Response{Error: fmt.Sprintf("failed to read response: %v", err), Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, fields := errorMessage(payload, resp.StatusCode)
		return Response{Error: msg, Fields: fields, Status: resp.StatusCode}
	}
	return Response{Data: payload, Status: resp.StatusCode}
}

func (c *Client) logf(format string, args ...any) {
	if c.verbose && c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// errorMessage pulls "error" or "message" out of an error body.
func errorMessage(payload []byte, status int) (string, map[string]string) {
	var body struct {
		Error   json.RawMessage   `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		var s string
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s, body.Fields
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message, body.Fields
		}
		if body.Message != "" {
			return body.Message, body.Fields
		}
	}
	return fmt.Sprintf("Request failed with status %d", status), nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) Response {
	return c.Request(ctx, endpoint, RequestOptions{Query: query})
}

func (c *Client) post(ctx context.Context, endpoint string, body any) Response {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body})
}

func (c *Client) put(ctx context.Context, endpoint string, body any) Response {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPut, Body: body})
}

func (c *Client) patch(ctx context.Context, endpoint string, body any) Response {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPatch, Body: body})
}

func (c *Client) delete(ctx context.Context, endpoint string) Response {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodDelete})
}

func path(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		if i == 0 {
			escaped[i] = p
			continue
		}
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}
