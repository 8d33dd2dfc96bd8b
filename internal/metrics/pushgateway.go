// Package metrics pushes readings to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/models"
)

// Pusher replaces the job's metric group with the latest reading.
type Pusher struct {
	url string
	job string
}

// NewPusher builds a pusher for cfg.
func NewPusher(cfg config.PushgatewayConfig) *Pusher {
	return &Pusher{url: cfg.URL, job: cfg.Job}
}

// Name implements sink.Sink.
func (p *Pusher) Name() string { return "pushgateway" }

// Send implements sink.Sink.
func (p *Pusher) Send(ctx context.Context, data *models.SensorData) error {
	temperature := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tempcheck_cpu_temperature_celsius",
		Help: "CPU temperature reported by the sensor tool.",
	})
	temperature.Set(data.Temperature)

	lastReading := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tempcheck_last_reading_timestamp_seconds",
		Help: "Unix time of the last successful reading.",
	})
	lastReading.Set(float64(data.Timestamp.Unix()))

	err := push.New(p.url, p.job).
		Grouping("instance", data.Hostname).
		Collector(temperature).
		Collector(lastReading).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", p.url, err)
	}
	return nil
}

// Close implements sink.Sink.
func (p *Pusher) Close() error { return nil }
