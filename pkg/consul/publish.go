package consul

import (
	"context"
	"fmt"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
)

// DefaultPrefix is the KV folder rendered node configs are stored under.
const DefaultPrefix = "nebula/nodes/"

type kvWriter interface {
	Put(p *consulapi.KVPair, q *consulapi.WriteOptions) (*consulapi.WriteMeta, error)
}

// Publisher writes rendered node configs into Consul KV, keyed by overlay IP.
type Publisher struct {
	kv     kvWriter
	prefix string
}

// NewPublisher builds a Consul client for addr. An empty prefix uses DefaultPrefix.
func NewPublisher(addr, token, prefix string) (*Publisher, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	if token != "" {
		cfg.Token = token
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return newPublisher(cli.KV(), prefix), nil
}

func newPublisher(kv kvWriter, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Publisher{kv: kv, prefix: prefix}
}

// Key returns the KV key a node's config is published at.
func (p *Publisher) Key(overlayIP string) string {
	return p.prefix + overlayIP
}

// Publish stores data at Key(overlayIP), replacing any previous value.
func (p *Publisher) Publish(ctx context.Context, overlayIP string, data []byte) error {
	if p == nil || p.kv == nil {
		return fmt.Errorf("consul client not configured")
	}
	opts := (&consulapi.WriteOptions{}).WithContext(ctx)
	if _, err := p.kv.Put(&consulapi.KVPair{Key: p.Key(overlayIP), Value: data}, opts); err != nil {
		return fmt.Errorf("consul put %s: %w", p.Key(overlayIP), err)
	}
	return nil
}
