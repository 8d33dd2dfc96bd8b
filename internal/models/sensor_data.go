package models

import (
	"fmt"
	"strconv"
	"time"
)

// SensorData is the envelope forwarded to reading sinks.
type SensorData struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Raw         string    `json:"raw"`
	DeviceID    string    `json:"device_id"`
	Hostname    string    `json:"hostname"`
	Source      string    `json:"source"`
}

// NewSensorData builds an envelope from the reading as printed by the sensor tool.
func NewSensorData(raw, deviceID, hostname, source string, at time.Time) (*SensorData, error) {
	temperature, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("reading %q is not a number: %w", raw, err)
	}
	return &SensorData{
		Timestamp:   at.UTC(),
		Temperature: temperature,
		Raw:         raw,
		DeviceID:    deviceID,
		Hostname:    hostname,
		Source:      source,
	}, nil
}
