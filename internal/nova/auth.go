package nova

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// AuthStage is the position of a Client in the login sequence.
type AuthStage int

const (
	StageUnauthenticated AuthStage = iota
	StageLoggedIn
	StageAuthorizing
	StageTokenRequested
	StageTokenExtracted
	StageProfileLoaded
	StageLoggedOut
)

func (s AuthStage) String() string {
	switch s {
	case StageLoggedIn:
		return "logged-in"
	case StageAuthorizing:
		return "authorizing"
	case StageTokenRequested:
		return "token-requested"
	case StageTokenExtracted:
		return "token-extracted"
	case StageProfileLoaded:
		return "profile-loaded"
	case StageLoggedOut:
		return "logged-out"
	default:
		return "unauthenticated"
	}
}

var accessTokenPattern = regexp.MustCompile(`^.*access_token=(\w+)&.*`)

const profileFilter = `{"include":["contract"]}`

func (c *Client) Stage() AuthStage {
	return c.stage
}

// LoginResponse returns the response of the credential submission, if any.
func (c *Client) LoginResponse() (*Snapshot, bool) {
	return c.loginResponse, c.loginResponse != nil
}

// AuthorizeResponse returns the response of the authorization confirmation, if any.
func (c *Client) AuthorizeResponse() (*Snapshot, bool) {
	return c.authorizeResponse, c.authorizeResponse != nil
}

// TokenResponse returns the response of the token request, if any.
func (c *Client) TokenResponse() (*Snapshot, bool) {
	return c.tokenResponse, c.tokenResponse != nil
}

func (c *Client) oauthParams() url.Values {
	return url.Values{
		"redirect_uri":  {c.endpoints.Authorized},
		"response_type": {"token"},
		"state":         {c.state},
		"client_id":     {c.clientID},
		"backUrl":       {"/authorization"},
	}
}

func (c *Client) requireStage(want AuthStage, what string) error {
	if c.stage == StageLoggedOut {
		return ErrSessionClosed
	}
	if c.stage < want {
		return fmt.Errorf("%s: %w", what, ErrResponseNotAvailable)
	}
	return nil
}

// Login runs the whole sequence: submit credentials, confirm the
// authorization, request and extract the token, then load the profile. It
// stops at the first failing step and leaves the client where that step left
// it; callers should discard the client and start over with a new one.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	steps := []func(context.Context) error{
		c.PostLogin,
		c.Authorize,
		c.RequestToken,
		func(context.Context) error { return c.ParseToken() },
		c.FetchProfile,
		func(context.Context) error { _, err := c.MaterializeProfile(); return err },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "login failed")
			return fmt.Errorf("login: %w", err)
		}
	}

	c.logger.Info("logged in to nova", "profile_id", c.profileID)
	return nil
}

// PostLogin submits the credentials. The redirects must end on the
// authorization endpoint, otherwise the credentials were rejected.
func (c *Client) PostLogin(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "PostLogin")
	defer span.End()

	switch {
	case c.stage == StageLoggedOut:
		return ErrSessionClosed
	case c.stage >= StageLoggedIn:
		return ErrAlreadyLoggedIn
	}

	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	snap, err := c.do(ctx, resourceLogin, http.MethodPost, c.endpoints.Login, c.oauthParams(), form)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit credentials")
		return fmt.Errorf("submitting credentials: %w", err)
	}
	c.loginResponse = snap

	if !strings.Contains(snap.FinalURL, c.endpoints.Authorization) {
		lerr := &LoginError{
			URL:        snap.FinalURL,
			StatusCode: snap.StatusCode,
			Reason:     loginFailureReason(snap.Body),
		}
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		c.logger.Warn("nova login rejected", "url", snap.FinalURL, "status", snap.StatusCode)
		return lerr
	}

	c.stage = StageLoggedIn
	return nil
}

// Authorize visits the authorization endpoint so the session cookies record
// that the user is authorizing this client.
func (c *Client) Authorize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Authorize")
	defer span.End()

	if err := c.requireStage(StageLoggedIn, "authorizing"); err != nil {
		return err
	}

	params := url.Values{
		"response_type": {"token"},
		"state":         {c.state},
		"redirect_uri":  {c.endpoints.Authorized + "&client_id=" + c.clientID},
		"client_id":     {c.clientID},
	}
	snap, err := c.do(ctx, resourceAuthorize, http.MethodGet, c.endpoints.Authorization, params, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to confirm authorization")
		return fmt.Errorf("confirming authorization: %w", err)
	}
	c.authorizeResponse = snap
	if !snap.OK() {
		return snap.statusError()
	}

	c.stage = StageAuthorizing
	return nil
}

// RequestToken approves the authorization. The redirect it triggers carries
// the access token in its URL.
func (c *Client) RequestToken(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RequestToken")
	defer span.End()

	if err := c.requireStage(StageLoggedIn, "requesting token: login response"); err != nil {
		return err
	}

	form := url.Values{"decision": {"1"}}
	snap, err := c.do(ctx, resourceToken, http.MethodPost, c.endpoints.Authorization, c.oauthParams(), form)
	if err != nil {
		span.SetStatus(codes.Error, "failed to request token")
		return fmt.Errorf("requesting token: %w", err)
	}
	c.tokenResponse = snap

	c.stage = StageTokenRequested
	return nil
}

// ParseToken extracts the access token from the token redirect URL and
// installs it as the bearer credential for every later request.
func (c *Client) ParseToken() error {
	if err := c.requireStage(StageTokenRequested, "parsing token: token response"); err != nil {
		return err
	}

	u := c.tokenResponse.FinalURL
	if !strings.HasPrefix(u, c.endpoints.Authorized) {
		return fmt.Errorf("%w: redirected to %s", ErrTokenEndpointMismatch, u)
	}
	m := accessTokenPattern.FindStringSubmatch(u)
	if len(m) < 2 || m[1] == "" {
		return fmt.Errorf("%w: %s", ErrTokenExtractionFailed, u)
	}

	c.accessToken = m[1]
	c.http.SetHeader("Authorization", "bearer "+c.accessToken)
	c.stage = StageTokenExtracted
	return nil
}

// FetchProfile requests the logged-in employee, including its contract.
func (c *Client) FetchProfile(ctx context.Context) error {
	if err := c.requireAuth("fetching profile"); err != nil {
		return err
	}
	q := url.Values{"filter": {profileFilter}}
	_, err := c.store(ctx, ResourceProfile, http.MethodGet, c.endpoints.Profile, q, nil)
	return err
}

// MaterializeProfile decodes the fetched profile and records its id as the
// default employee id for later calls.
func (c *Client) MaterializeProfile() (*Profile, error) {
	var p Profile
	if err := c.Decode(ResourceProfile, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: profile has no id", ErrUnexpectedShape)
	}
	c.profileID = p.ID
	if c.stage == StageTokenExtracted {
		c.stage = StageProfileLoaded
	}
	return &p, nil
}

// Logout ends the session on the server and drops the bearer token. The
// client cannot log in again afterwards.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.requireAuth("logging out"); err != nil {
		return err
	}
	if _, err := c.store(ctx, ResourceLogout, http.MethodPost, c.endpoints.Logout, nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	c.http.Header.Del("Authorization")
	c.accessToken = ""
	c.stage = StageLoggedOut
	return nil
}

// loginFailureReason pulls the error message out of the login page HTML, if
// the server rendered one.
func loginFailureReason(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range []string{".alert", ".error", ".help-block"} {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return strings.Join(strings.Fields(text), " ")
		}
	}
	return ""
}
