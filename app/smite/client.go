// Package smite is a client for the Hi-Rez SMITE API. Every request carries a
// per-call MD5 signature, and most methods also need a session that is created
// on demand and renewed before it expires.
package smite

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/base/request"

	"github.com/lysyi3m/motd-comb/app/motd"
)

const (
	DefaultBaseURL = "https://api.smitegame.com/smiteapi.svc/"

	// SessionLifetime is how long Hi-Rez keeps a session alive.
	SessionLifetime = 15 * time.Minute
	// SessionSafetyMargin is subtracted from SessionLifetime when deciding
	// whether a cached session can still be used.
	SessionSafetyMargin = 60 * time.Second

	responseFormat  = "json"
	timestampLayout = "20060102150405"

	methodCreateSession = "createsession"
	methodTestSession   = "testsession"
	methodGetGods       = "getgods"
	methodGetMOTD       = "getmotd"
)

var ErrNoSession = errors.New("session was not created")

type Config struct {
	DeveloperID string
	AuthKey     string
	// Language is the language code passed to localized methods.
	Language   int
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

type Client struct {
	devID      string
	authKey    string
	lang       int
	baseURL    string
	httpClient *http.Client
	userAgent  string
	log        *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	sessionID   string
	sessionTime time.Time
}

// God is a roster entry returned by getgods.
type God struct {
	ID      int    `json:"id"`
	Name    string `json:"Name"`
	IconURL string `json:"godIcon_URL"`
}

type sessionResponse struct {
	RetMsg    string `json:"ret_msg"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

func NewClient(cfg Config) *Client {
	c := &Client{
		devID:      cfg.DeveloperID,
		authKey:    cfg.AuthKey,
		lang:       cfg.Language,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		userAgent:  cfg.UserAgent,
		log:        cfg.Logger,
		now:        time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	if c.lang == 0 {
		c.lang = 1
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Signature returns the hex MD5 digest Hi-Rez expects for a call.
func Signature(devID, method, authKey, timestamp string) string {
	sum := md5.Sum([]byte(devID + method + authKey + timestamp))
	return hex.EncodeToString(sum[:])
}

// Call invokes an API method with positional arguments and returns the raw
// JSON response. A session is created first if there is none or the cached
// one is about to expire.
func (c *Client) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, method, &raw, args...); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetGods returns the god roster.
func (c *Client) GetGods(ctx context.Context) ([]God, error) {
	var gods []God
	if err := c.call(ctx, methodGetGods, &gods, c.lang); err != nil {
		return nil, err
	}
	return gods, nil
}

// GetMOTDs returns the current MOTD feed, newest first.
func (c *Client) GetMOTDs(ctx context.Context) ([]motd.RawRecord, error) {
	var records []motd.RawRecord
	if err := c.call(ctx, methodGetMOTD, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// TestSession asks the server whether the cached session is still valid.
func (c *Client) TestSession(ctx context.Context) (bool, error) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		return false, nil
	}

	var result string
	if err := c.get(ctx, methodTestSession, sessionID, &result); err != nil {
		return false, err
	}
	return strings.Contains(result, "successful"), nil
}

func (c *Client) call(ctx context.Context, method string, out any, args ...any) error {
	sessionID, err := c.session(ctx)
	if err != nil {
		return err
	}
	return c.get(ctx, method, sessionID, out, args...)
}

// session returns a cheaply validated session, creating a new one when needed.
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionUsable(c.now()) {
		return c.sessionID, nil
	}

	c.sessionID = ""

	var resp sessionResponse
	if err := c.get(ctx, methodCreateSession, "", &resp); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSession, resp.RetMsg)
	}

	c.sessionID = resp.SessionID
	c.sessionTime = c.now()
	c.log.Debug("Session created", "ret_msg", resp.RetMsg)

	return c.sessionID, nil
}

// sessionUsable reports whether the cached session is young enough to be used
// without asking the server. Callers hold c.mu.
func (c *Client) sessionUsable(now time.Time) bool {
	return c.sessionID != "" && now.Sub(c.sessionTime) < SessionLifetime-SessionSafetyMargin
}

func (c *Client) requestURL(method, sessionID string, now time.Time, args ...any) string {
	timestamp := now.UTC().Format(timestampLayout)

	path := []string{
		method + responseFormat,
		c.devID,
		Signature(c.devID, method, c.authKey, timestamp),
		sessionID,
		timestamp,
	}
	for _, arg := range args {
		path = append(path, url.PathEscape(fmt.Sprint(arg)))
	}

	segments := path[:0]
	for _, segment := range path {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	return c.baseURL + strings.Join(segments, "/")
}

func (c *Client) get(ctx context.Context, method, sessionID string, out any, args ...any) error {
	headers := map[string]string{}
	if c.userAgent != "" {
		headers["User-Agent"] = c.userAgent
	}

	data, err := request.Make[request.Bytes](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        c.requestURL(method, sessionID, c.now(), args...),
		Headers:    headers,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	return nil
}
