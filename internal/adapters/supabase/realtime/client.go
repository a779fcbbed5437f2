package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pawtastic/internal/platform/httpclient"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var (
	ErrNotConfigured = errors.New("realtime client not configured")
	ErrJoinRejected  = errors.New("realtime join rejected")
	ErrUpstream      = errors.New("realtime upstream error")
)

const (
	DefaultHeartbeat = 25 * time.Second

	joinTimeout = 10 * time.Second
	writeWait   = 5 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string

	HeartbeatInterval time.Duration

	// Dialer opcional (tests). Por defecto websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Client implementa backend.ChangeFeed sobre el canal Phoenix de Supabase
// Realtime (postgres_changes). Cada Subscribe abre su propio socket.
type Client struct {
	wsURL     string
	apiKey    string
	token     httpclient.TokenFunc
	heartbeat time.Duration
	dialer    *websocket.Dialer
	log       logger.Logger
}

func NewClient(cfg Config, token httpclient.TokenFunc, log logger.Logger) (*Client, error) {
	c := &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		token:     token,
		heartbeat: cfg.HeartbeatInterval,
		dialer:    cfg.Dialer,
		log:       logger.OrNop(log).With(map[string]any{"component": "supabase.realtime"}),
	}
	if c.heartbeat <= 0 {
		c.heartbeat = DefaultHeartbeat
	}
	if c.dialer == nil {
		c.dialer = websocket.DefaultDialer
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return c, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("invalid base url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	u.RawQuery = url.Values{"apikey": {c.apiKey}, "vsn": {"1.0.0"}}.Encode()
	c.wsURL = u.String()

	return c, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.wsURL != "" && c.apiKey != ""
}

// message es el frame Phoenix (serializer v1 JSON).
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
	JoinRef string          `json:"join_ref,omitempty"`
}

type changeConfig struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type joinPayload struct {
	Config struct {
		Broadcast struct {
			Self bool `json:"self"`
		} `json:"broadcast"`
		Presence struct {
			Key string `json:"key"`
		} `json:"presence"`
		PostgresChanges []changeConfig `json:"postgres_changes"`
	} `json:"config"`
	AccessToken string `json:"access_token,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Table     string      `json:"table"`
		Type      string      `json:"type"`
		Record    backend.Row `json:"record"`
		OldRecord backend.Row `json:"old_record"`
	} `json:"data"`
}

func (c *Client) Subscribe(ctx context.Context, table string, f backend.Filter) (backend.Subscription, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrUpstream, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	topic := "realtime:public:" + table
	filter := ""
	if f.Column != "" {
		filter = f.Column + "=eq." + f.Equals
		topic += ":" + filter
	}

	s := &subscription{
		client: c,
		conn:   conn,
		topic:  topic,
		table:  table,
		out:    make(chan backend.ChangeEvent),
		done:   make(chan struct{}),
		ended:  make(chan struct{}),
		log:    c.log.With(map[string]any{"table": table, "topic": topic}),
	}

	var jp joinPayload
	jp.Config.PostgresChanges = []changeConfig{{Event: "*", Schema: "public", Table: table, Filter: filter}}
	if c.token != nil {
		jp.AccessToken = c.token()
		s.lastToken = jp.AccessToken
	}

	if err := s.join(ctx, jp); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go s.readLoop()
	go s.heartbeatLoop(c.heartbeat)

	return s, nil
}

type subscription struct {
	client *Client
	conn   *websocket.Conn
	topic  string
	table  string
	log    logger.Logger

	writeMu   sync.Mutex
	ref       atomic.Uint64
	joinRef   string
	lastToken string

	out   chan backend.ChangeEvent
	done  chan struct{}
	ended chan struct{}
	once  sync.Once
}

func (s *subscription) Events() <-chan backend.ChangeEvent { return s.out }

// Close manda phx_leave, cierra el socket y espera al read loop.
func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		if err := s.send("phx_leave", map[string]any{}); err != nil {
			s.log.Debug("phx_leave failed", map[string]any{"err": err})
		}
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.ended
	return nil
}

func (s *subscription) nextRef() string {
	return strconv.FormatUint(s.ref.Add(1), 10)
}

func (s *subscription) send(event string, payload any) error {
	return s.sendTopic(s.topic, event, payload)
}

func (s *subscription) sendTopic(topic, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := message{Topic: topic, Event: event, Payload: raw, Ref: s.nextRef()}
	if topic == s.topic {
		msg.JoinRef = s.joinRef
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

// join manda phx_join y espera el phx_reply con el mismo ref.
func (s *subscription) join(ctx context.Context, jp joinPayload) error {
	raw, err := json.Marshal(jp)
	if err != nil {
		return err
	}
	ref := s.nextRef()
	s.joinRef = ref
	b, err := json.Marshal(message{Topic: s.topic, Event: "phx_join", Payload: raw, Ref: ref, JoinRef: ref})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(joinTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(deadline)
	err = s.conn.WriteMessage(websocket.TextMessage, b)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: join: %v", ErrUpstream, err)
	}

	_ = s.conn.SetReadDeadline(deadline)
	defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: join: %v", ErrUpstream, err)
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Event != "phx_reply" || msg.Ref != ref {
			continue
		}

		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("%w: join reply: %v", ErrUpstream, err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("%w: %s", ErrJoinRejected, strings.TrimSpace(string(reply.Response)))
		}
		return nil
	}
}

func (s *subscription) readLoop() {
	defer close(s.ended)
	defer close(s.out)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Warn("realtime socket closed", map[string]any{"err": err})
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("invalid frame", map[string]any{"err": err})
			continue
		}

		switch msg.Event {
		case "postgres_changes":
			ev, ok := s.decodeChange(msg.Payload)
			if !ok {
				continue
			}
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		case "phx_error", "phx_close":
			if msg.Topic == s.topic {
				s.log.Warn("channel closed by server", map[string]any{"event": msg.Event})
				_ = s.conn.Close()
				return
			}
		case "system":
			s.log.Debug("system message", map[string]any{"payload": string(msg.Payload)})
		}
	}
}

func (s *subscription) decodeChange(raw json.RawMessage) (backend.ChangeEvent, bool) {
	var p changePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Debug("invalid change payload", map[string]any{"err": err})
		return backend.ChangeEvent{}, false
	}

	var ev backend.ChangeEvent
	switch strings.ToUpper(p.Data.Type) {
	case "INSERT":
		ev = backend.ChangeEvent{Type: backend.EventInsert, New: p.Data.Record}
	case "UPDATE":
		ev = backend.ChangeEvent{Type: backend.EventUpdate, New: p.Data.Record, Old: p.Data.OldRecord}
	case "DELETE":
		ev = backend.ChangeEvent{Type: backend.EventDelete, Old: p.Data.OldRecord}
	default:
		return backend.ChangeEvent{}, false
	}
	return ev, true
}

// heartbeatLoop mantiene vivo el socket y reenvía el access token si rotó.
func (s *subscription) heartbeatLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-s.ended:
			return
		case <-t.C:
		}

		if err := s.sendTopic("phoenix", "heartbeat", map[string]any{}); err != nil {
			s.log.Warn("heartbeat failed", map[string]any{"err": err})
			continue
		}

		if s.client.token == nil {
			continue
		}
		if tok := s.client.token(); tok != "" && tok != s.lastToken {
			if err := s.send("access_token", map[string]string{"access_token": tok}); err != nil {
				s.log.Warn("access token push failed", map[string]any{"err": err})
				continue
			}
			s.lastToken = tok
		}
	}
}
