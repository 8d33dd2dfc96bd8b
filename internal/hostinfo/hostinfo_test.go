package hostinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stub replaces the host lookups for the duration of the test.
func stub(t *testing.T, info func(context.Context) (*host.InfoStat, error), name func() (string, error)) {
	t.Helper()
	origInfo, origName := hostInfo, hostname
	t.Cleanup(func() { hostInfo, hostname = origInfo, origName })
	hostInfo, hostname = info, name
}

func TestLookup(t *testing.T) {
	id, err := Lookup(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, id.Hostname)
	assert.NotEmpty(t, id.DeviceID)
}

func TestLookup_UsesHostID(t *testing.T) {
	stub(t,
		func(context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{HostID: "8f14e45f", Hostname: "macbook"}, nil
		},
		func() (string, error) { t.Fatal("hostname fallback used"); return "", nil },
	)

	id, err := Lookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{DeviceID: "8f14e45f", Hostname: "macbook"}, id)
}

func TestLookup_EmptyHostIDFallsBackToHostname(t *testing.T) {
	stub(t,
		func(context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{Hostname: "macbook"}, nil
		},
		func() (string, error) { return "unused", nil },
	)

	id, err := Lookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{DeviceID: "macbook", Hostname: "macbook"}, id)
}

func TestLookup_InfoFailureUsesOSHostname(t *testing.T) {
	stub(t,
		func(context.Context) (*host.InfoStat, error) { return nil, errors.New("not implemented yet") },
		func() (string, error) { return "buildbox", nil },
	)

	id, err := Lookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{DeviceID: "buildbox", Hostname: "buildbox"}, id)
}

func TestLookup_BothLookupsFail(t *testing.T) {
	stub(t,
		func(context.Context) (*host.InfoStat, error) { return nil, errors.New("not implemented yet") },
		func() (string, error) { return "", errors.New("no uts name") },
	)

	_, err := Lookup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read host info")
	assert.Contains(t, err.Error(), "not implemented yet")
}
