package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pawtastic/internal/platform/httpclient"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

var (
	ErrNotConfigured = errors.New("rest client not configured")
	ErrUnauthorized  = errors.New("rest unauthorized")
	ErrUpstream      = errors.New("rest upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implementa backend.DataAPI con la sintaxis de PostgREST
// (col=eq.v, order=col.desc). Las políticas RLS se aplican con el
// token del usuario, por eso recibe un TokenFunc del cliente de auth.
type Client struct {
	http *httpclient.Client
	log  logger.Logger
}

func NewClient(cfg Config, token httpclient.TokenFunc, log logger.Logger) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	hc.Headers["apikey"] = apiKey

	// Sin sesión se usa la anon key como bearer.
	hc.Token = func() string {
		if token != nil {
			if t := token(); t != "" {
				return t
			}
		}
		return apiKey
	}

	return &Client{
		http: hc,
		log:  logger.OrNop(log).With(map[string]any{"component": "supabase.rest"}),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http.BaseURL != "" && c.http.Headers["apikey"] != ""
}

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func (c *Client) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	params := url.Values{"select": {"*"}}
	if q.Column != "" {
		params.Set(q.Column, "eq."+q.Equals)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Descending {
			dir = "desc"
		}
		params.Set("order", q.OrderBy+"."+dir)
	}

	var out []backend.Row
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   tablePath(table),
		Query:  params,
		Out:    &out,
	})
	if err != nil {
		return nil, c.wrap("select", table, err)
	}
	if out == nil {
		out = []backend.Row{}
	}
	return out, nil
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var out []backend.Row
	err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    tablePath(table),
		Headers: map[string]string{"Prefer": "return=representation"},
		In:      row,
		Out:     &out,
	})
	if err != nil {
		return nil, c.wrap("insert", table, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: insert %s returned no rows", ErrUpstream, table)
	}
	return out[0], nil
}

func (c *Client) Update(ctx context.Context, table, id string, patch backend.Row) (backend.Row, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var out []backend.Row
	err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPatch,
		Path:    tablePath(table),
		Query:   url.Values{"id": {"eq." + id}},
		Headers: map[string]string{"Prefer": "return=representation"},
		In:      patch,
		Out:     &out,
	})
	if err != nil {
		return nil, c.wrap("update", table, err)
	}
	if len(out) == 0 {
		return nil, backend.ErrNotFound
	}
	return out[0], nil
}

func (c *Client) Delete(ctx context.Context, table, id string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	var out []backend.Row
	err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodDelete,
		Path:    tablePath(table),
		Query:   url.Values{"id": {"eq." + id}},
		Headers: map[string]string{"Prefer": "return=representation"},
		Out:     &out,
	})
	if err != nil {
		return c.wrap("delete", table, err)
	}
	if len(out) == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (c *Client) wrap(op, table string, err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s %s: %v", ErrUnauthorized, op, table, err)
	}
	c.log.Debug("postgrest call failed", map[string]any{"op": op, "table": table, "err": err})
	return fmt.Errorf("%w: %s %s: %v", ErrUpstream, op, table, err)
}
