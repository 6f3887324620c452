// Package collect reads every configured sensor, scales the readings and hands
// the resulting row to a sink.
package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eskila/jdoc/internal/moisture"
	"github.com/eskila/jdoc/internal/sink"
)

// Reader returns the raw value of one sensor pin.
type Reader interface {
	Read(ctx context.Context, pin int) (int, error)
}

// Collector takes one reading per pin per run.
type Collector struct {
	reader      Reader
	pins        []moisture.Pin
	calibration moisture.Calibration
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

type Option func(*Collector)

// WithClock overrides the time source used to stamp rows.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithConcurrency bounds the number of sensors read at once. Values below one
// mean one.
func WithConcurrency(n int) Option {
	return func(c *Collector) { c.concurrency = max(n, 1) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

func New(reader Reader, pins []moisture.Pin, calibration moisture.Calibration, opts ...Option) *Collector {
	c := &Collector{
		reader:      reader,
		pins:        pins,
		calibration: calibration,
		logger:      zap.NewNop(),
		now:         time.Now,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads all pins and returns the row in config order. A sensor that
// cannot be read is logged and recorded as missing; only cancellation of ctx
// fails the run.
func (c *Collector) Collect(ctx context.Context) (moisture.Row, error) {
	readings := make([]moisture.Reading, len(c.pins))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range c.pins {
		g.Go(func() error {
			raw, err := c.reader.Read(gctx, p.Pin)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn("sensor read failed",
					zap.String("plant", p.PlantName),
					zap.Int("pin", p.Pin),
					zap.Error(err))
				readings[i] = moisture.MissingReading(p.PlantName, p.Pin)
				return nil
			}
			readings[i] = moisture.NewReading(p.PlantName, p.Pin, raw, c.calibration)
			c.logger.Debug("sensor read",
				zap.String("plant", p.PlantName),
				zap.Int("raw", raw),
				zap.Float64("percent", readings[i].Percent))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return moisture.Row{}, fmt.Errorf("collect readings: %w", err)
	}
	return moisture.Row{Timestamp: c.now(), Readings: readings}, nil
}

// Run collects one row and writes it to s.
func (c *Collector) Run(ctx context.Context, s sink.Sink) (moisture.Row, error) {
	row, err := c.Collect(ctx)
	if err != nil {
		return moisture.Row{}, err
	}
	if err := s.Write(ctx, row); err != nil {
		return moisture.Row{}, fmt.Errorf("write row: %w", err)
	}
	missing := 0
	for _, r := range row.Readings {
		if !r.Available() {
			missing++
		}
	}
	c.logger.Info("readings written",
		zap.Int("plants", len(row.Readings)),
		zap.Int("missing", missing))
	return row, nil
}
