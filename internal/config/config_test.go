package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gimbal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "usccmd", cfg.Device.Transport)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, 0, cfg.Tracking.PanChannel)
	assert.Equal(t, 1, cfg.Tracking.TiltChannel)
	assert.Equal(t, 10, cfg.Tracking.Tolerance)
	assert.Equal(t, 24, cfg.Tracking.StopAllChannels)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 480, cfg.Camera.Height)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOverridesAndBackfill(t *testing.T) {
	path := writeConfig(t, `
device:
  transport: serial
  port: /dev/ttyACM0
  profile: fs90r
tracking:
  pan_channel: 2
  tilt_channel: 3
  tolerance: 25
web:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serial", cfg.Device.Transport)
	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Port)
	assert.Equal(t, "fs90r", cfg.Device.Profile)
	assert.Equal(t, 2, cfg.Tracking.PanChannel)
	assert.Equal(t, 3, cfg.Tracking.TiltChannel)
	assert.Equal(t, 25, cfg.Tracking.Tolerance)

	// Untouched sections keep their defaults.
	assert.Equal(t, 9600, cfg.Device.BaudRate)
	assert.Equal(t, 0.35, cfg.Tracking.PanSpeed)
	assert.Equal(t, 200*time.Millisecond, cfg.Tracking.MinInterval())
	assert.Equal(t, 5*time.Minute, cfg.Capture.CaptureInterval())
	assert.Equal(t, ":8080", cfg.Web.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown transport",
			body: "device:\n  transport: telnet\n",
			want: "device.transport",
		},
		{
			name: "serial without port",
			body: "device:\n  transport: serial\n",
			want: "device.port",
		},
		{
			name: "unknown profile",
			body: "device:\n  transport: usccmd\n  profile: mg996r\n",
			want: "device.profile",
		},
		{
			name: "same channel twice",
			body: "tracking:\n  pan_channel: 1\n  tilt_channel: 1\n",
			want: "tilt_channel",
		},
		{
			name: "negative tolerance",
			body: "tracking:\n  tolerance: -4\n",
			want: "tolerance",
		},
		{
			name: "pan speed above one",
			body: "tracking:\n  pan_speed: 1.5\n",
			want: "pan_speed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
