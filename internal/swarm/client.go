package swarm

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"
)

type ObjectKind string

const (
	KindConfig ObjectKind = "config"
	KindSecret ObjectKind = "secret"
)

type ConfigPayload struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Bytes  []byte            `json:"-"`
}

type SecretPayload struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Bytes  []byte            `json:"-"`
}

// OwnedObject is a config or secret carrying our owner labels.
type OwnedObject struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Kind   ObjectKind        `json:"kind"`
	Labels map[string]string `json:"labels"`

	// CreatedAt is when this content was first published.
	CreatedAt time.Time `json:"createdAt"`
}

// Client is the slice of the Swarm API the publisher needs. Ensure calls are
// create-if-missing by name and return name -> id.
type Client interface {
	EnsureConfigs(ctx context.Context, cfgs []ConfigPayload) (map[string]string, error)
	EnsureSecrets(ctx context.Context, secs []SecretPayload) (map[string]string, error)
	ListOwned(ctx context.Context, ownerLabels map[string]string) ([]OwnedObject, error)
	Prune(ctx context.Context, objs []OwnedObject) error
	Close() error
}

// NoopClient keeps objects in memory. The noop driver uses it to print plans
// without a Docker daemon.
type NoopClient struct {
	mu      sync.Mutex
	objects map[string]OwnedObject
	seq     int
}

func NewNoopClient() *NoopClient { return &NoopClient{objects: map[string]OwnedObject{}} }

func (c *NoopClient) ensure(kind ObjectKind, name string, labels map[string]string) string {
	if o, ok := c.objects[name]; ok {
		return o.ID
	}
	c.seq++
	o := OwnedObject{ID: string(kind) + "-" + strconv.Itoa(c.seq), Name: name, Kind: kind, Labels: maps.Clone(labels), CreatedAt: time.Now().UTC()}
	c.objects[name] = o
	return o.ID
}

func (c *NoopClient) EnsureConfigs(_ context.Context, cfgs []ConfigPayload) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(cfgs))
	for _, p := range cfgs {
		out[p.Name] = c.ensure(KindConfig, p.Name, p.Labels)
	}
	return out, nil
}

func (c *NoopClient) EnsureSecrets(_ context.Context, secs []SecretPayload) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(secs))
	for _, p := range secs {
		out[p.Name] = c.ensure(KindSecret, p.Name, p.Labels)
	}
	return out, nil
}

// ListOwned returns matching objects sorted by name.
func (c *NoopClient) ListOwned(_ context.Context, ownerLabels map[string]string) ([]OwnedObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []OwnedObject
	for _, o := range c.objects {
		if hasLabels(o.Labels, ownerLabels) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b OwnedObject) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (c *NoopClient) Prune(_ context.Context, objs []OwnedObject) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range objs {
		delete(c.objects, o.Name)
	}
	return nil
}

func (c *NoopClient) Close() error { return nil }

func hasLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
