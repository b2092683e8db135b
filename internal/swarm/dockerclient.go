package swarm

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/swarm"
	dclient "github.com/docker/docker/client"
	log "github.com/sirupsen/logrus"

	"github.com/cmmoran/gatecp/internal/logging"
)

// DockerClient implements Client using the official Docker SDK.
type DockerClient struct {
	c   *dclient.Client
	log *log.Entry
}

func NewDockerClient() (*DockerClient, error) {
	cli, err := dclient.NewClientWithOpts(dclient.FromEnv, dclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerClient{c: cli, log: logging.For("swarm")}, nil
}

func (d *DockerClient) EnsureConfigs(ctx context.Context, cfgs []ConfigPayload) (map[string]string, error) {
	out := map[string]string{}
	for _, c := range cfgs {
		id, err := d.findConfigIDByName(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		if id != "" {
			out[c.Name] = id
			continue
		}
		spec := swarm.ConfigSpec{
			Annotations: swarm.Annotations{
				Name:   c.Name,
				Labels: c.Labels,
			},
			Data: c.Bytes,
		}
		resp, err := d.c.ConfigCreate(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("create config %s: %w", c.Name, err)
		}
		d.log.WithFields(log.Fields{"event": "config_created", "name": c.Name, "id": resp.ID}).Info("created config")
		out[c.Name] = resp.ID
	}
	return out, nil
}

func (d *DockerClient) EnsureSecrets(ctx context.Context, secs []SecretPayload) (map[string]string, error) {
	out := map[string]string{}
	for _, s := range secs {
		id, err := d.findSecretIDByName(ctx, s.Name)
		if err != nil {
			return nil, err
		}
		if id != "" {
			out[s.Name] = id
			continue
		}
		spec := swarm.SecretSpec{
			Annotations: swarm.Annotations{
				Name:   s.Name,
				Labels: s.Labels,
			},
			Data: s.Bytes,
		}
		resp, err := d.c.SecretCreate(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("create secret %s: %w", s.Name, err)
		}
		d.log.WithFields(log.Fields{"event": "secret_created", "name": s.Name, "id": resp.ID}).Info("created secret")
		out[s.Name] = resp.ID
	}
	return out, nil
}

func (d *DockerClient) ListOwned(ctx context.Context, ownerLabels map[string]string) ([]OwnedObject, error) {
	var owned []OwnedObject
	f := filters.NewArgs()
	for k, v := range ownerLabels {
		f.Add("label", k+"="+v)
	}
	cfgs, err := d.c.ConfigList(ctx, swarm.ConfigListOptions{Filters: f})
	if err != nil {
		return nil, err
	}
	for _, c := range cfgs {
		owned = append(owned, OwnedObject{
			ID:        c.ID,
			Name:      c.Spec.Name,
			Kind:      KindConfig,
			Labels:    c.Spec.Labels,
			CreatedAt: c.CreatedAt,
		})
	}
	secs, err := d.c.SecretList(ctx, swarm.SecretListOptions{Filters: f})
	if err != nil {
		return nil, err
	}
	for _, s := range secs {
		owned = append(owned, OwnedObject{
			ID:        s.ID,
			Name:      s.Spec.Name,
			Kind:      KindSecret,
			Labels:    s.Spec.Labels,
			CreatedAt: s.CreatedAt,
		})
	}
	return owned, nil
}

// Prune removes every object it can and reports all failures together. An
// object still referenced by a service cannot be removed; the next prune
// after the service moves on picks it up.
func (d *DockerClient) Prune(ctx context.Context, objs []OwnedObject) error {
	var errs []error
	for _, o := range objs {
		var err error
		switch o.Kind {
		case KindConfig:
			err = d.c.ConfigRemove(ctx, o.ID)
		case KindSecret:
			err = d.c.SecretRemove(ctx, o.ID)
		default:
			err = fmt.Errorf("unknown object kind %q", o.Kind)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s %s: %w", o.Kind, o.Name, err))
			continue
		}
		d.log.WithFields(log.Fields{"event": "object_pruned", "kind": o.Kind, "name": o.Name}).Info("pruned object")
	}
	return errors.Join(errs...)
}

func (d *DockerClient) Close() error { return d.c.Close() }

// Name filters match by prefix, so the result is checked for an exact name.
func (d *DockerClient) findConfigIDByName(ctx context.Context, name string) (string, error) {
	f := filters.NewArgs()
	f.Add("name", name)
	cfgs, err := d.c.ConfigList(ctx, swarm.ConfigListOptions{Filters: f})
	if err != nil {
		return "", err
	}
	for _, c := range cfgs {
		if c.Spec.Name == name {
			return c.ID, nil
		}
	}
	return "", nil
}

func (d *DockerClient) findSecretIDByName(ctx context.Context, name string) (string, error) {
	f := filters.NewArgs()
	f.Add("name", name)
	secs, err := d.c.SecretList(ctx, swarm.SecretListOptions{Filters: f})
	if err != nil {
		return "", err
	}
	for _, s := range secs {
		if s.Spec.Name == name {
			return s.ID, nil
		}
	}
	return "", nil
}
