package goSession

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/session"
)

// Client issues authenticated API calls on behalf of one session. Every
// call goes out with a valid access token; a 401 response triggers exactly
// one forced refresh and one retry, never more.
type Client struct {
	manager *Manager
	handle  *session.Handle
}

// ClientFor binds an authenticated client to a session handle.
func (m *Manager) ClientFor(h *session.Handle) *Client {
	return &Client{manager: m, handle: h}
}

// Call performs an authenticated request. The request body, when non-nil,
// is JSON-encoded. When a 401 survives the retry, the returned error joins
// [ErrSessionExpired] with the provider's error.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}) (*provider.Response, error) {
	if c == nil || c.manager == nil {
		return nil, ErrManagerNotReady
	}

	sess, err := c.manager.EnsureValid(ctx, c.handle)
	if err != nil {
		return nil, err
	}

	resp, err := c.manager.provider.Do(ctx, method, path, sess.AccessToken, body)
	if err == nil {
		return resp, nil
	}

	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		c.noteTransportError(err)
		return nil, err
	}

	// The provider rejected a token we believed valid. Force one refresh
	// keyed on the rejected token and retry once.
	c.manager.metrics.Inc(MetricTransportRetry)

	fresh, refreshErr := c.manager.refresh(ctx, c.handle, sess.AccessToken)
	if refreshErr != nil {
		// Surface the original rejection; the refresh error is already
		// accounted for by the coordinator.
		return nil, errors.Join(ErrSessionExpired, err)
	}

	resp, err = c.manager.provider.Do(ctx, method, path, fresh.AccessToken, body)
	if err == nil {
		return resp, nil
	}
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil, errors.Join(ErrSessionExpired, err)
	}
	c.noteTransportError(err)
	return nil, err
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*provider.Response, error) {
	return c.Call(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*provider.Response, error) {
	return c.Call(ctx, http.MethodPost, path, body)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*provider.Response, error) {
	return c.Call(ctx, http.MethodPut, path, body)
}

// Patch performs an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*provider.Response, error) {
	return c.Call(ctx, http.MethodPatch, path, body)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*provider.Response, error) {
	return c.Call(ctx, http.MethodDelete, path, nil)
}

// Session returns the current snapshot of the bound session.
func (c *Client) Session() session.Session {
	return c.handle.Snapshot()
}

func (c *Client) noteTransportError(err error) {
	var tErr *provider.TransportError
	if errors.As(err, &tErr) {
		c.manager.metrics.Inc(MetricTransportError)
	}
}
