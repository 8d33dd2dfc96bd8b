// Package sink forwards a reading to the optional destinations enabled in
// configuration. Failures are logged and never reach the console.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/database"
	"github.com/ponytojas/go-tempcheck/internal/hostinfo"
	"github.com/ponytojas/go-tempcheck/internal/kafka"
	"github.com/ponytojas/go-tempcheck/internal/metrics"
	"github.com/ponytojas/go-tempcheck/internal/models"
	"github.com/ponytojas/go-tempcheck/internal/mqtt"
)

// Source tags envelopes produced by this tool.
const Source = "tempcheck"

// Sink is one destination for a reading.
type Sink interface {
	Name() string
	Send(ctx context.Context, data *models.SensorData) error
	Close() error
}

// Dispatcher sends a reading to each sink once, bounding every attempt by timeout.
type Dispatcher struct {
	sinks    []Sink
	timeout  time.Duration
	log      *logrus.Logger
	identify func(context.Context) (hostinfo.Identity, error)
	now      func() time.Time
}

// New returns a dispatcher over sinks.
func New(log *logrus.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:    sinks,
		timeout:  timeout,
		log:      log,
		identify: hostinfo.Lookup,
		now:      time.Now,
	}
}

// Build constructs the sinks enabled in cfg. A sink that cannot be set up is
// logged and left out.
func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger) *Dispatcher {
	var sinks []Sink

	if cfg.MQTT.Enabled {
		sinks = append(sinks, mqtt.NewPublisher(cfg, log))
	}
	if cfg.Database.Enabled {
		if db, err := openTimescale(ctx, cfg, log); err != nil {
			log.WithError(err).Error("Timescale sink disabled for this run")
		} else {
			sinks = append(sinks, db)
		}
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, kafka.NewProducer(cfg.Kafka))
	}
	if cfg.Pushgateway.Enabled {
		sinks = append(sinks, metrics.NewPusher(cfg.Pushgateway))
	}

	return New(log, cfg.Sinks.Timeout, sinks...)
}

func openTimescale(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*database.TimescaleDB, error) {
	ctx, cancel := withTimeout(ctx, cfg.Sinks.Timeout)
	defer cancel()

	db, err := database.NewTimescaleDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.InitializeTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Len reports how many sinks are active.
func (d *Dispatcher) Len() int {
	return len(d.sinks)
}

// Dispatch wraps value in an envelope and sends it to every sink.
func (d *Dispatcher) Dispatch(ctx context.Context, value string) {
	if len(d.sinks) == 0 {
		return
	}

	data, err := d.envelope(ctx, value)
	if err != nil {
		d.log.WithError(err).Error("Reading not forwarded to sinks")
		return
	}

	for _, s := range d.sinks {
		sctx, cancel := withTimeout(ctx, d.timeout)
		err := s.Send(sctx, data)
		cancel()

		entry := d.log.WithField("sink", s.Name())
		if err != nil {
			entry.WithError(err).Error("Failed to forward reading")
			continue
		}
		entry.Debug("Reading forwarded")
	}
}

func (d *Dispatcher) envelope(ctx context.Context, value string) (*models.SensorData, error) {
	ictx, cancel := withTimeout(ctx, d.timeout)
	defer cancel()

	id, err := d.identify(ictx)
	if err != nil {
		return nil, err
	}
	data, err := models.NewSensorData(value, id.DeviceID, id.Hostname, Source, d.now())
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope: %w", err)
	}
	return data, nil
}

// Close closes every sink, logging failures.
func (d *Dispatcher) Close() {
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			d.log.WithError(err).WithField("sink", s.Name()).Warn("Failed to close sink")
		}
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
