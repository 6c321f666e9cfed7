// Package redis wraps the go-redis client so repositories depend on a small
// interface that miniredis-backed tests can satisfy.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures Redis client behavior
type Options struct {
	PoolSize        int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	MaxRetries      int
	UseTLS          bool
	// ReadOnly routes cluster reads to replicas
	ReadOnly bool
}

// NewClient creates a Redis client for a single instance
func NewClient(endpoint string, opts *Options) (Client, error) {
	if endpoint == "" {
		return nil, errors.New("redis: endpoint is required")
	}

	if opts == nil {
		opts = &Options{}
	}

	redisOpts := &redis.Options{
		Addr:            endpoint,
		MinIdleConns:    opts.MinIdleConns,
		PoolSize:        opts.PoolSize,
		ConnMaxIdleTime: opts.ConnMaxIdleTime,
		MaxRetries:      opts.MaxRetries,
	}

	if opts.UseTLS {
		redisOpts.TLSConfig = tlsConfig(endpoint)
	}

	return redis.NewClient(redisOpts), nil
}

// NewClusterClient creates a Redis client for cluster mode
func NewClusterClient(endpoints []string, opts *Options) (Client, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("redis: at least one endpoint is required")
	}

	if opts == nil {
		opts = &Options{}
	}

	clusterOpts := &redis.ClusterOptions{
		Addrs:        endpoints,
		MinIdleConns: opts.MinIdleConns,
		PoolSize:     opts.PoolSize,
		MaxRetries:   opts.MaxRetries,
		ReadOnly:     opts.ReadOnly,
	}

	if opts.UseTLS {
		clusterOpts.TLSConfig = tlsConfig(endpoints[0])
	}

	return redis.NewClusterClient(clusterOpts), nil
}

// Connect picks a single-node or cluster client based on the number of
// endpoints and verifies the connection with PING.
func Connect(ctx context.Context, endpoints []string, opts *Options) (Client, error) {
	var (
		client Client
		err    error
	)
	switch len(endpoints) {
	case 0:
		return nil, errors.New("redis: at least one endpoint is required")
	case 1:
		client, err = NewClient(endpoints[0], opts)
	default:
		client, err = NewClusterClient(endpoints, opts)
	}
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %v: %w", endpoints, err)
	}
	return client, nil
}

// tlsConfig verifies the server certificate against the endpoint host
func tlsConfig(endpoint string) *tls.Config {
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
	}
}
