package api

import (
	"context"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// refreshKey is the singleflight key; there is only ever one renewal
// operation per client.
const refreshKey = "refresh"

// Refresher exchanges a refresh token for a new credential pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}

// RefreshCoordinator guarantees single-flight token renewal: however many
// callers observe an expired access token concurrently, exactly one renewal
// call goes out and every caller shares its outcome. A failed renewal is
// terminal for the session and clears the credential store.
type RefreshCoordinator struct {
	store     *CredentialStore
	refresher Refresher
	timeout   time.Duration
	clock     clockwork.Clock
	log       log.FieldLogger

	group singleflight.Group
}

func NewRefreshCoordinator(store *CredentialStore, refresher Refresher, timeout time.Duration, clock clockwork.Clock, logger log.FieldLogger) *RefreshCoordinator {
	return &RefreshCoordinator{
		store:     store,
		refresher: refresher,
		timeout:   timeout,
		clock:     clock,
		log:       logger,
	}
}

// Refresh returns the renewed credential pair, joining an in-flight renewal
// when one exists. The renewal itself runs detached from any single caller's
// context under its own deadline, so one caller's timer firing abandons only
// that caller's wait, never the shared operation. A caller that stops
// waiting gets its own context error; the store is untouched by it.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (Credentials, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		creds, err := c.doRefresh(context.WithoutCancel(ctx))
		if err != nil {
			return Credentials{}, err
		}
		return creds, nil
	})

	select {
	case <-ctx.Done():
		return Credentials{}, trace.Wrap(ClassifyTransport(ctx.Err()))
	case res := <-ch:
		if res.Err != nil {
			return Credentials{}, trace.Wrap(res.Err)
		}
		return res.Val.(Credentials), nil
	}
}

func (c *RefreshCoordinator) doRefresh(ctx context.Context) (Credentials, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		// No round-trip: there is nothing to renew with.
		c.store.Clear()
		return Credentials{}, trace.Wrap(&APIError{
			Kind:    KindAuthenticationFailed,
			Message: "no refresh token",
		})
	}

	started := c.clock.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	creds, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		mtxRefreshes.WithLabelValues("failure").Inc()
		c.store.Clear()
		c.log.WithError(err).Debug("Token refresh failed, session terminated")
		return Credentials{}, trace.Wrap(&APIError{
			Kind:    KindAuthenticationFailed,
			Message: "session expired, log in again",
		})
	}

	c.store.SetCredentials(creds)
	mtxRefreshes.WithLabelValues("success").Inc()
	c.log.Debugf("Refreshed credentials in %s", c.clock.Since(started))
	return creds, nil
}
