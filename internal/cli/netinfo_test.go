package cli

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalIP(t *testing.T) {
	ip := localIP()
	if ip == "" {
		t.Skip("no non-loopback IPv4 route on this host")
	}

	parsed := net.ParseIP(ip)
	if assert.NotNil(t, parsed, "localIP returned %q", ip) {
		assert.NotNil(t, parsed.To4())
		assert.False(t, parsed.IsLoopback())
	}
}
