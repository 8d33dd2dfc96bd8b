// Package hostinfo identifies the machine a reading was taken on.
package hostinfo

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/host"
)

// Identity names the reporting machine in sink envelopes.
type Identity struct {
	DeviceID string
	Hostname string
}

var (
	hostInfo = host.InfoWithContext
	hostname = os.Hostname
)

// Lookup reads the host identity. The host ID falls back to the hostname on
// platforms where gopsutil cannot provide one.
func Lookup(ctx context.Context) (Identity, error) {
	info, err := hostInfo(ctx)
	if err != nil {
		name, herr := hostname()
		if herr != nil {
			return Identity{}, fmt.Errorf("failed to read host info: %w", err)
		}
		return Identity{DeviceID: name, Hostname: name}, nil
	}

	id := Identity{DeviceID: info.HostID, Hostname: info.Hostname}
	if id.DeviceID == "" {
		id.DeviceID = id.Hostname
	}
	return id, nil
}
