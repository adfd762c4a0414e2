package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout     = 10 * time.Second
	maxErrorBodyBytes  = 64 << 10
	jsonContentType    = "application/json"
	authorizationField = "Authorization"
)

// APIError is a structured error response from the provider.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider: %d: %s", e.Status, e.Message)
}

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Credentials are the inputs to a password login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// OTP carries the one-time code for a second login step after the
	// provider demanded MFA. Empty on the first attempt.
	OTP string `json:"otp,omitempty"`
}

// SignupInput are the inputs to account creation.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// User is the provider's view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// MFAChallenge describes a pending second factor the provider demands
// before it will issue tokens.
type MFAChallenge struct {
	ChallengeID string `json:"challenge_id"`
	Method      string `json:"method"`
}

// Grant is a successful credential exchange: either a token pair, or a
// pending MFA challenge with no tokens.
type Grant struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the access token lifetime in seconds. Zero means the
	// provider did not report one and the caller should fall back to the
	// token's own exp claim.
	ExpiresIn   int64         `json:"expires_in"`
	MFARequired *MFAChallenge `json:"mfa_required,omitempty"`
}

// Client exchanges credentials against the provider's auth endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a provider client for the given base URL. A nil
// httpClient gets a default with a bounded timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("provider: base URL required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// Login exchanges credentials for a grant. A grant with MFARequired set
// carries no tokens; the caller must repeat the login with an OTP.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Grant, error) {
	return c.exchange(ctx, "login", "/auth/login", creds)
}

// Signup creates an account and returns its first grant.
func (c *Client) Signup(ctx context.Context, input SignupInput) (*Grant, error) {
	return c.exchange(ctx, "signup", "/auth/signup", input)
}

// Refresh exchanges a refresh token for a new grant. The provider may
// rotate the refresh token; callers must adopt the returned one when
// non-empty.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return c.exchange(ctx, "refresh", "/auth/refresh", body)
}

// Logout revokes a refresh token server-side. A 401 from the provider is
// not an error here; the token was already dead.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", "", body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil
		}
		return err
	}
	resp.Body.Close()
	return nil
}

// Me fetches the profile behind an access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &TransportError{Op: "me", Err: err}
	}
	return &user, nil
}

// Do issues an arbitrary authenticated request against the provider's API.
// It is the escape hatch the client transport builds on: path is joined to
// the base URL, body (when non-nil) is JSON-encoded, and accessToken (when
// non-empty) is sent as a Bearer credential. Responses with error status
// come back as *APIError.
func (c *Client) Do(ctx context.Context, method, path, accessToken string, body any) (*Response, error) {
	resp, err := c.do(ctx, method, path, accessToken, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// Response is a fully read provider API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("provider: decode response: %v", err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, op, path string, body any) (*Grant, error) {
	resp, err := c.do(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var grant Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if grant.MFARequired == nil && grant.AccessToken == "" {
		return nil, &TransportError{Op: op, Err: errors.New("grant missing access token")}
	}
	return &grant, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: "encode", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}
	req.Header.Set("Accept", jsonContentType)
	if accessToken != "" {
		req.Header.Set(authorizationField, "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
