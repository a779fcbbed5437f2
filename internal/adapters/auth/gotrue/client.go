package gotrue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pawtastic/internal/platform/httpclient"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"

	"github.com/goccy/go-json"
)

var (
	ErrNotConfigured = errors.New("gotrue client not configured")
	ErrUnauthorized  = errors.New("gotrue unauthorized")
	ErrUpstream      = errors.New("gotrue upstream error")
)

// Config del cliente GoTrue (auth de Supabase).
type Config struct {
	// BaseURL es la URL del proyecto (sin /auth/v1).
	BaseURL string
	APIKey  string

	// ServiceRoleKey solo se usa para DeleteUser (endpoint admin).
	ServiceRoleKey string

	Timeout time.Duration
}

type session struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         backend.User
}

// Client implementa backend.AuthAPI contra /auth/v1.
type Client struct {
	http           *httpclient.Client
	apiKey         string
	serviceRoleKey string
	log            logger.Logger
	now            func() time.Time

	mu      sync.RWMutex
	session *session

	listeners map[int]func(*backend.User)
	nextL     int
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	hc.Headers["apikey"] = apiKey

	c := &Client{
		http:           hc,
		apiKey:         apiKey,
		serviceRoleKey: strings.TrimSpace(cfg.ServiceRoleKey),
		log:            logger.OrNop(log).With(map[string]any{"component": "gotrue"}),
		now:            time.Now,
		listeners:      make(map[int]func(*backend.User)),
	}
	hc.Token = c.AccessToken
	return c, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse cubre /token y /signup. Con confirmación de email
// activada, /signup devuelve solo el usuario (id/email top-level).
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`

	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (backend.User, error) {
	if !c.IsConfigured() {
		return backend.User{}, ErrNotConfigured
	}

	var out tokenResponse
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/signup",
		Bearer: c.apiKey,
		In:     map[string]string{"email": email, "password": password},
		Out:    &out,
	})
	if err != nil {
		if isEmailTaken(err) {
			return backend.User{}, backend.ErrEmailTaken
		}
		return backend.User{}, c.upstream("signup", err)
	}

	if out.AccessToken == "" {
		// Requiere confirmación: hay usuario pero no sesión.
		u := backend.User{ID: out.ID, Email: out.Email}
		if u.ID == "" {
			u = backend.User{ID: out.User.ID, Email: out.User.Email}
		}
		if u.ID == "" {
			return backend.User{}, fmt.Errorf("%w: signup response missing user id", ErrUpstream)
		}
		return u, nil
	}

	return c.setSession(out)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (backend.User, error) {
	if !c.IsConfigured() {
		return backend.User{}, ErrNotConfigured
	}

	var out tokenResponse
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/token",
		Query:  url.Values{"grant_type": {"password"}},
		Bearer: c.apiKey,
		In:     map[string]string{"email": email, "password": password},
		Out:    &out,
	})
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return backend.User{}, fmt.Errorf("%w: %w", backend.ErrInvalidLogin, err)
		}
		return backend.User{}, c.upstream("signin", err)
	}
	return c.setSession(out)
}

// SignOut revoca el token remoto y limpia la sesión local aunque falle.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.AccessToken()

	var remoteErr error
	if token != "" && c.IsConfigured() {
		err := c.http.Do(ctx, httpclient.Request{
			Method: http.MethodPost,
			Path:   "/auth/v1/logout",
			Bearer: token,
		})
		if err != nil {
			remoteErr = c.upstream("logout", err)
		}
	}

	c.clearSession()
	return remoteErr
}

// Refresh renueva el access token con el refresh token vigente.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.RLock()
	var rt string
	if c.session != nil {
		rt = c.session.refreshToken
	}
	c.mu.RUnlock()

	if rt == "" {
		return ErrUnauthorized
	}

	var out tokenResponse
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/token",
		Query:  url.Values{"grant_type": {"refresh_token"}},
		Bearer: c.apiKey,
		In:     map[string]string{"refresh_token": rt},
		Out:    &out,
	})
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return c.upstream("refresh", err)
	}

	_, err = c.setSession(out)
	return err
}

// KeepAlive refresca el token antes de que venza hasta que ctx termine.
// Si el refresh token fue revocado, limpia la sesión.
func (c *Client) KeepAlive(ctx context.Context) {
	const (
		margin = time.Minute
		idle   = 30 * time.Second
	)

	for {
		wait := idle
		c.mu.RLock()
		if c.session != nil && !c.session.expiresAt.IsZero() {
			wait = c.session.expiresAt.Sub(c.now()) - margin
		}
		c.mu.RUnlock()
		if wait < time.Second {
			wait = time.Second
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		if c.CurrentUser() == nil {
			continue
		}
		c.mu.RLock()
		due := c.session != nil && !c.session.expiresAt.IsZero() && c.now().Add(margin).After(c.session.expiresAt)
		c.mu.RUnlock()
		if !due {
			continue
		}

		if err := c.Refresh(ctx); err != nil {
			if errors.Is(err, ErrUnauthorized) {
				c.log.Warn("refresh token rejected, clearing session", map[string]any{"err": err})
				c.clearSession()
				continue
			}
			c.log.Error("token refresh failed", map[string]any{"err": err})
		}
	}
}

func (c *Client) CurrentUser() *backend.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	u := c.session.user
	return &u
}

// AccessToken devuelve el JWT del usuario ("" sin sesión).
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.accessToken
}

func (c *Client) OnAuthStateChange(fn func(*backend.User)) func() {
	c.mu.Lock()
	id := c.nextL
	c.nextL++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if !c.IsConfigured() || c.serviceRoleKey == "" {
		return ErrNotConfigured
	}

	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/auth/v1/admin/users/" + url.PathEscape(userID),
		Bearer: c.serviceRoleKey,
		Headers: map[string]string{
			"apikey": c.serviceRoleKey,
		},
	})
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return backend.ErrNotFound
		}
		return c.upstream("admin.delete_user", err)
	}

	if u := c.CurrentUser(); u != nil && u.ID == userID {
		c.clearSession()
	}
	return nil
}

func (c *Client) setSession(out tokenResponse) (backend.User, error) {
	u := backend.User{ID: strings.TrimSpace(out.User.ID), Email: strings.TrimSpace(out.User.Email)}
	if u.ID == "" {
		return backend.User{}, fmt.Errorf("%w: token response missing user id", ErrUpstream)
	}

	s := &session{
		accessToken:  out.AccessToken,
		refreshToken: out.RefreshToken,
		user:         u,
	}
	if out.ExpiresIn > 0 {
		s.expiresAt = c.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.session = s
	fns := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range fns {
		cp := u
		fn(&cp)
	}
	return u, nil
}

func (c *Client) clearSession() {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	fns := c.snapshotListeners()
	c.mu.Unlock()

	if !had {
		return
	}
	for _, fn := range fns {
		fn(nil)
	}
}

// snapshotListeners asume c.mu tomado.
func (c *Client) snapshotListeners() []func(*backend.User) {
	out := make([]func(*backend.User), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func (c *Client) upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

func isEmailTaken(err error) bool {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		return false
	}
	if he.StatusCode != http.StatusBadRequest && he.StatusCode != http.StatusUnprocessableEntity {
		return false
	}

	var body errorResponse
	_ = json.Unmarshal([]byte(he.Body), &body)
	if body.ErrorCode == "user_already_exists" || body.ErrorCode == "email_exists" {
		return true
	}
	text := strings.ToLower(body.Msg + " " + body.Error + " " + body.ErrorDescription + " " + he.Body)
	return strings.Contains(text, "already registered") || strings.Contains(text, "already exists")
}
