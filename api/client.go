package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"github.com/quantfold/tradedash/lib/logger"
)

// Request describes one API call. It is immutable once handed to Do.
type Request struct {
	Method string
	Path   string
	// Body is serialized as JSON when set. Mutually exclusive with Form.
	Body interface{}
	// Form is sent urlencoded when set (the token endpoint wants this).
	Form  url.Values
	Query url.Values
	// RequiresAuth attaches the bearer token and arms the refresh-and-retry
	// path on a 401.
	RequiresAuth bool
	// Timeout bounds the whole call including a possible refresh and retry.
	// Zero means the client default.
	Timeout time.Duration
}

func (r *Request) checkAndSetDefaults(defaultTimeout time.Duration) error {
	if r.Method == "" {
		return trace.BadParameter("missing request method")
	}
	if r.Path == "" {
		return trace.BadParameter("missing request path")
	}
	if r.Timeout == 0 {
		r.Timeout = defaultTimeout
	}
	return nil
}

// Client dispatches authenticated calls to the trading-bot backend. On a 401
// from an authenticated call it renews the token pair through the refresh
// coordinator and re-issues the call exactly once; a second 401 terminates
// the session. Construct with NewClient; instances are independent and safe
// for concurrent use.
type Client struct {
	conf  Config
	http  *resty.Client
	store *CredentialStore
	coord *RefreshCoordinator
	log   log.FieldLogger
}

func NewClient(conf Config) (*Client, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	// No client-level timeout: each call carries its own deadline so that a
	// firing timer cancels that call only.
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     conf.MaxConns,
			MaxIdleConnsPerHost: conf.MaxConns,
		},
	}

	rc := resty.NewWithClient(httpClient).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	rc.SetHostURL(conf.BaseURL)
	rc.JSONMarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal
	rc.JSONUnmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal

	client := &Client{
		conf:  conf,
		http:  rc,
		store: NewCredentialStore(),
		log:   logger.Standard().WithField("component", "api"),
	}
	client.coord = NewRefreshCoordinator(client.store, &tokenRefresher{http: rc}, conf.Timeout, conf.Clock, client.log)
	return client, nil
}

// CredentialStore exposes the client's credential store so collaborators
// (route guards, session persistence) can observe and seed it.
func (c *Client) CredentialStore() *CredentialStore {
	return c.store
}

// IsAuthenticated reports whether the client currently holds an access token.
func (c *Client) IsAuthenticated() bool {
	return c.store.IsAuthenticated()
}

// Do sends one request and decodes the 2xx response body into result (which
// may be nil). Errors are classified; see the Is* predicates. A 401 on an
// authenticated call is resolved through a single refresh-and-retry; it is
// never surfaced as such from this path — callers see either the retried
// call's outcome or a terminal authentication failure with the store cleared.
func (c *Client) Do(ctx context.Context, req Request, result interface{}) error {
	if err := req.checkAndSetDefaults(c.conf.Timeout); err != nil {
		return trace.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	err := c.send(ctx, req, result)
	if err == nil || kindOf(err) != KindAuthenticationRequired {
		return err
	}
	if !req.RequiresAuth {
		// The backend returned 401 to an unauthenticated call; that is its
		// answer, not a token problem we can repair.
		return err
	}

	// The coordinator short-circuits with a terminal failure when no refresh
	// token is stored, clearing the store either way.
	if _, err := c.coord.Refresh(ctx); err != nil {
		return trace.Wrap(err)
	}

	// One retry with the renewed token, no matter what it returns.
	mtxRetries.Inc()
	c.log.WithField("path", req.Path).Debug("Retrying request after token refresh")
	err = c.send(ctx, req, result)
	if err != nil && kindOf(err) == KindAuthenticationRequired {
		// The renewed token was rejected too. Terminate instead of looping.
		c.store.Clear()
		return trace.Wrap(&APIError{
			Kind:    KindAuthenticationFailed,
			Message: "authentication failed after token refresh",
		})
	}
	return err
}

// send performs a single attempt: build the request, execute it under ctx,
// classify any failure, decode any success.
func (c *Client) send(ctx context.Context, req Request, result interface{}) error {
	r := c.http.NewRequest().SetContext(ctx)
	if req.Query != nil {
		r.SetQueryParamsFromValues(req.Query)
	}
	switch {
	case req.Form != nil:
		r.SetFormDataFromValues(req.Form)
	case req.Body != nil:
		r.SetBody(req.Body)
	}
	if req.RequiresAuth {
		if token := c.store.AccessToken(); token != "" {
			r.SetAuthToken(token)
		}
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		classified := ClassifyTransport(err)
		mtxRequests.WithLabelValues(req.Method, classified.Kind.String()).Inc()
		return trace.Wrap(classified)
	}

	mtxRequests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode())).Inc()
	if !resp.IsSuccess() {
		return trace.Wrap(ClassifyStatus(resp.StatusCode(), resp.Body()))
	}

	if result != nil && len(resp.Body()) > 0 {
		if err := c.http.JSONUnmarshal(resp.Body(), result); err != nil {
			return trace.Wrap(&APIError{
				Kind:    KindUnexpected,
				Message: "malformed response body: " + err.Error(),
			})
		}
	}
	return nil
}

// tokenRefresher calls the backend's renewal endpoint. It shares the resty
// client but never attaches a bearer token: renewal authenticates with the
// refresh token itself.
type tokenRefresher struct {
	http *resty.Client
}

func (t *tokenRefresher) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	var creds Credentials
	resp, err := t.http.NewRequest().
		SetContext(ctx).
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&creds).
		Post("/auth/refresh")
	if err != nil {
		return Credentials{}, trace.Wrap(ClassifyTransport(err))
	}
	if !resp.IsSuccess() {
		return Credentials{}, trace.Wrap(ClassifyStatus(resp.StatusCode(), resp.Body()))
	}
	return creds, nil
}
