package redis

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTLSConfigUsesEndpointHost(t *testing.T) {
	cfg := tlsConfig("cache.internal:6380")
	assert.Equal(t, "cache.internal", cfg.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.False(t, cfg.InsecureSkipVerify)

	assert.Equal(t, "cache.internal", tlsConfig("cache.internal").ServerName)
}
