// Package sensor reads raw moisture values from the ESP board's HTTP API.
//
// The board answers GET /<pin> with a JSON object such as {"reading": 1734}.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/eskila/jdoc"
)

var (
	// ErrStatus is returned when the board answers with anything but 200.
	ErrStatus = errors.New("unexpected status")
	// ErrNoReading is returned when the reply has no integral "reading" field.
	ErrNoReading = errors.New("no reading in response")
)

const maxBodySize = 64 << 10

// Options tune a Client. Zero fields take defaults.
type Options struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	Logger    *zap.Logger
}

// Client talks to one ESP board.
type Client struct {
	base   string
	http   *retryablehttp.Client
	logger *zap.Logger
}

// New returns a client for the board at addr, which may be a bare host
// ("192.168.1.50"), host:port, or a full http(s) URL.
func New(addr string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(opts.Retries, 0)
	rc.RetryWaitMin = opts.RetryWait
	rc.RetryWaitMax = 10 * opts.RetryWait
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = retryLogger{opts.Logger.Sugar()}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		base:   baseURL(addr),
		http:   rc,
		logger: opts.Logger,
	}
}

func baseURL(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

// URL returns the endpoint serving pin.
func (c *Client) URL(pin int) string {
	return fmt.Sprintf("%s/%d", c.base, pin)
}

// Read fetches the raw reading of pin.
func (c *Client) Read(ctx context.Context, pin int) (int, error) {
	url := c.URL(pin)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, fmt.Errorf("read body of %s: %w", url, err)
	}
	doc, err := jdoc.Decode(body)
	if err != nil {
		return 0, fmt.Errorf("parse response of %s: %w", url, err)
	}
	raw, err := readingOf(doc)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", url, err)
	}
	c.logger.Debug("sensor reading", zap.Int("pin", pin), zap.Int("raw", raw))
	return raw, nil
}

// readingOf extracts the "reading" field. Floats are accepted when they hold
// an integral value.
func readingOf(doc *jdoc.Document) (int, error) {
	v, ok := doc.Get("reading")
	if !ok {
		return 0, ErrNoReading
	}
	if n, ok := v.AsInt(); ok {
		if n < math.MinInt || n > math.MaxInt {
			return 0, fmt.Errorf("%w: reading %d out of range", ErrNoReading, n)
		}
		return int(n), nil
	}
	f, ok := v.AsFloat()
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: reading is %s", ErrNoReading, v.Kind())
	}
	// -2^63 is exact as a float64 but 2^63 already overflows.
	if f < math.MinInt || f >= -math.MinInt {
		return 0, fmt.Errorf("%w: reading %g out of range", ErrNoReading, f)
	}
	return int(f), nil
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
