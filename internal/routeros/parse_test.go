package routeros

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUptime(t *testing.T) {
	tests := []struct {
		name   string
		uptime string
		want   int64
	}{
		{"all units", "1w2d3h4m5s", 1*604800 + 2*86400 + 3*3600 + 4*60 + 5},
		{"empty", "", 0},
		{"seconds only", "45s", 45},
		{"minutes and seconds", "10m30s", 630},
		{"weeks only", "3w", 3 * 604800},
		{"garbage", "not-an-uptime", 0},
		{"large days", "100d", 100 * 86400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUptime(tt.uptime))
		})
	}
}

func TestParseUptimeOrderIndependent(t *testing.T) {
	// The concentrator always emits units largest-first, but the parser
	// must not depend on that.
	assert.Equal(t, ParseUptime("1w3h"), ParseUptime("3h1w"))
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name string
		rate string
		want int64
	}{
		{"megabits", "10Mbps", 10000000},
		{"fractional kilobits", "1.5kbps", 1500},
		{"plain bits", "500bps", 500},
		{"gigabits", "2Gbps", 2000000000},
		{"fractional megabits", "1.5Mbps", 1500000},
		{"empty", "", 0},
		{"garbage", "bogus", 0},
		{"missing suffix", "100", 0},
		{"fractional bits round", "10.6bps", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRate(tt.rate))
		})
	}
}

func TestParseRateCaseInsensitive(t *testing.T) {
	assert.Equal(t, ParseRate("10Mbps"), ParseRate("10MBPS"))
	assert.Equal(t, ParseRate("1.5kbps"), ParseRate("1.5KBPS"))
}

func TestParseBytes(t *testing.T) {
	assert.Equal(t, int64(123456789), ParseBytes("123456789"))
	assert.Equal(t, int64(0), ParseBytes(""))
	assert.Equal(t, int64(0), ParseBytes("12MB"))
}
