package nova

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultClientID  = "56cccded013d35a3949308d7"
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "Go-http-client/1.1"
	maxRedirects     = 10
)

var tracer = otel.Tracer("nova")

// Options configures a Client. The zero value talks to the production
// deployment with the default client id and a 30s timeout.
type Options struct {
	Endpoints Endpoints
	ClientID  string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// Client is one authenticated session against the Nova API. It keeps the
// cookie jar, the Authorization header and the last response of every
// resource it fetched. A Client is not safe for concurrent use.
type Client struct {
	username  string
	password  string
	clientID  string
	state     string
	endpoints Endpoints
	http      *resty.Client
	logger    *slog.Logger

	stage       AuthStage
	accessToken string
	profileID   ID

	loginResponse     *Snapshot
	authorizeResponse *Snapshot
	tokenResponse     *Snapshot
	snapshots         map[Resource]*Snapshot
}

func NewClient(username, password string, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	endpoints := opts.Endpoints.WithDefaults()
	if err := endpoints.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoints: %w", err)
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	h := resty.New()
	h.SetCookieJar(jar)
	h.SetTimeout(timeout)
	h.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	h.SetHeader("User-Agent", userAgent)
	// The deployment is plain http; resty would warn on every bearer request.
	h.SetDisableWarn(true)

	return &Client{
		username:  username,
		password:  password,
		clientID:  clientID,
		state:     uuid.NewString(),
		endpoints: endpoints,
		http:      h,
		logger:    logger,
		snapshots: make(map[Resource]*Snapshot),
	}, nil
}

// State returns the correlation token threaded through the login redirects.
func (c *Client) State() string {
	return c.state
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// AccessToken returns the bearer token, empty before ParseToken succeeds.
func (c *Client) AccessToken() string {
	return c.accessToken
}

// ProfileID returns the logged-in employee id, zero until the profile is loaded.
func (c *Client) ProfileID() ID {
	return c.profileID
}

// Header returns a copy of the headers sent with every request.
func (c *Client) Header() http.Header {
	return c.http.Header.Clone()
}

// Authenticated reports whether an Authorization header is installed.
func (c *Client) Authenticated() bool {
	return c.http.Header.Get("Authorization") != ""
}

// Snapshot returns the last response kept for r.
func (c *Client) Snapshot(r Resource) (*Snapshot, bool) {
	s, ok := c.snapshots[r]
	return s, ok
}

// SnapshotState returns Unfetched when r was never fetched.
func (c *Client) SnapshotState(r Resource) SnapshotState {
	if s, ok := c.snapshots[r]; ok {
		return s.State()
	}
	return Unfetched
}

func (c *Client) requireAuth(op string) error {
	if !c.Authenticated() {
		return fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}
	return nil
}

// do performs one round trip and wraps the response in a Snapshot. Only
// transport failures are returned as errors; status handling is up to callers.
func (c *Client) do(ctx context.Context, r Resource, method, endpoint string, query, form url.Values) (*Snapshot, error) {
	ctx, span := tracer.Start(ctx, "nova:"+string(r))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("nova.resource", string(r)),
	)

	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if form != nil {
		req.SetFormDataFromValues(form)
	}

	c.logger.Debug("nova API request", "method", method, "resource", r, "url", endpoint)
	start := time.Now()

	res, err := req.Execute(method, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Debug("nova API transport error", "method", method, "resource", r, "url", endpoint, "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	snap := newSnapshot(r, res)
	span.SetAttributes(attribute.Int("http.status_code", snap.StatusCode))

	c.logger.Debug("nova API response", "method", method, "resource", r, "status", snap.StatusCode, "bytes", len(snap.Body), "elapsed", time.Since(start))
	if !snap.OK() {
		span.SetStatus(codes.Error, http.StatusText(snap.StatusCode))
		c.logger.Debug("nova API request failed", "method", method, "resource", r, "status", snap.StatusCode, "response", truncate(string(snap.Body), 200))
	}
	return snap, nil
}

// store replaces the snapshot for r with a fresh response. A failed round trip
// leaves r unfetched.
func (c *Client) store(ctx context.Context, r Resource, method, endpoint string, query, form url.Values) (*Snapshot, error) {
	delete(c.snapshots, r)
	snap, err := c.do(ctx, r, method, endpoint, query, form)
	if err != nil {
		return nil, err
	}
	c.snapshots[r] = snap
	if !snap.OK() {
		return snap, snap.statusError()
	}
	return snap, nil
}
