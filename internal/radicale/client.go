// Package radicale pushes locally-stored calendar events to an external
// CalDAV server. Calls never return an error to the caller: outcomes are
// reported as typed results and logged, so local operations are never
// blocked by external-server unavailability.
package radicale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/polyhub/calsync/internal/ics"
	"github.com/polyhub/calsync/internal/storage"
)

const defaultTimeout = 5 * time.Second

// ErrMissingUID reports an event that cannot be addressed on the external
// server because it carries no CalDAV UID.
var ErrMissingUID = errors.New("radicale: event has no CalDAV UID")

// Outcome classifies the result of a push or remove call.
type Outcome int

const (
	// OutcomeOK means the external server accepted the request.
	OutcomeOK Outcome = iota
	// OutcomeRejected means the server answered with an unexpected status.
	OutcomeRejected
	// OutcomeFailed means the request could not be completed at all
	// (connection refused, timeout, DNS failure, bad payload).
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of an external sync call. Status carries the
// HTTP status code when the server answered; Err carries the transport or
// encoding error when it did not.
type Result struct {
	Outcome Outcome
	Status  int
	Err     error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

func ok(status int) Result       { return Result{Outcome: OutcomeOK, Status: status} }
func rejected(status int) Result { return Result{Outcome: OutcomeRejected, Status: status} }
func failed(err error) Result    { return Result{Outcome: OutcomeFailed, Err: err} }

// Config holds the fixed per-deployment connection settings for the
// external CalDAV server.
type Config struct {
	// BaseURL of the external server, e.g. "http://127.0.0.1:5232".
	BaseURL string
	// Password is the shared secret used for Basic auth; the username is
	// supplied per call.
	Password string
	// Timeout bounds each request. Defaults to 5 seconds.
	Timeout time.Duration
}

// Client performs authenticated PUT/DELETE of encoded events against the
// external CalDAV server.
type Client struct {
	http     *http.Client
	baseURL  string
	password string
	logger   *slog.Logger
}

// NewClient creates a client from the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		password: cfg.Password,
		logger:   logger,
	}
}

func (c *Client) objectURL(username, uid string) string {
	return fmt.Sprintf("%s/%s/calendar/%s.ics", c.baseURL, username, uid)
}

// Push serializes the event and PUTs it to the external server.
// 201 and 204 are success; any other status or transport error is failure.
func (c *Client) Push(ctx context.Context, username string, event *storage.Event) Result {
	// A UID-less event would PUT to ".../calendar/.ics" and orphan the object.
	if event.CalDAVUID == "" {
		c.logger.Warn("caldav sync error", "event_id", event.ID, "error", ErrMissingUID)
		return failed(ErrMissingUID)
	}

	body, err := ics.Encode(event)
	if err != nil {
		c.logger.Warn("caldav sync error", "uid", event.CalDAVUID, "error", err)
		return failed(err)
	}

	url := c.objectURL(username, event.CalDAVUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		c.logger.Warn("caldav sync error", "url", url, "error", err)
		return failed(err)
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	req.SetBasicAuth(username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("caldav sync error", "url", url, "error", err)
		return failed(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent:
		c.logger.Info("caldav sync ok", "url", url, "status", resp.StatusCode)
		return ok(resp.StatusCode)
	default:
		c.logger.Warn("caldav sync failed", "url", url, "status", resp.StatusCode)
		return rejected(resp.StatusCode)
	}
}

// Remove DELETEs the event resource from the external server.
// 200, 204 and 404 (already absent) are success.
func (c *Client) Remove(ctx context.Context, username, uid string) Result {
	if uid == "" {
		c.logger.Warn("caldav delete error", "error", ErrMissingUID)
		return failed(ErrMissingUID)
	}

	url := c.objectURL(username, uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.logger.Warn("caldav delete error", "url", url, "error", err)
		return failed(err)
	}
	req.SetBasicAuth(username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("caldav delete error", "url", url, "error", err)
		return failed(err)
	}
	defer resp.Body.Close()

	c.logger.Info("caldav delete", "url", url, "status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return ok(resp.StatusCode)
	default:
		return rejected(resp.StatusCode)
	}
}
