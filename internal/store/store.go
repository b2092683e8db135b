package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"

	vault "github.com/hashicorp/vault/api"
	bao "github.com/openbao/openbao/api/v2"
)

// ErrSecretNotFound is wrapped by every backend when a path or field is absent.
var ErrSecretNotFound = errors.New("secret not found")

// Client reads and writes secret values addressed as "mount/path#field".
type Client interface {
	ResolveSecret(ctx context.Context, path string) ([]byte, error)
	// PutSecret sets one field, keeping the entry's other fields.
	PutSecret(ctx context.Context, path string, value []byte) error
	Close()
}

func splitField(s string) (string, string) {
	parts := strings.SplitN(s, "#", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return s, ""
}

func toKVv2Path(base string) string {
	// heuristic: insert /data/ after first path element (mount name)
	base = strings.TrimLeft(base, "/")
	parts := strings.SplitN(base, "/", 2)
	if len(parts) == 1 {
		return parts[0] + "/data"
	}
	return parts[0] + "/data/" + parts[1]
}

func pickField(m map[string]any, field string) ([]byte, error) {
	if field != "" {
		if v, ok := m[field]; ok {
			if s, ok := v.(string); ok {
				return []byte(s), nil
			}
			return nil, fmt.Errorf("field %q exists but is not a string", field)
		}
		return nil, fmt.Errorf("field %q: %w", field, ErrSecretNotFound)
	}
	// prefer "data"
	if v, ok := m["data"]; ok {
		if s, ok := v.(string); ok {
			return []byte(s), nil
		}
	}
	// if only one key, return it
	if len(m) == 1 {
		for _, v := range m {
			if s, ok := v.(string); ok {
				return []byte(s), nil
			}
		}
	}
	return nil, fmt.Errorf("could not choose a value; specify #field in the path")
}

// putField is the KV v2 write body with field set to value.
func putField(current map[string]any, field string, value []byte) map[string]any {
	if field == "" {
		field = "data"
	}
	next := make(map[string]any, len(current)+1)
	maps.Copy(next, current)
	next[field] = string(value)
	return map[string]any{"data": next}
}

// coerce copies the data of a vault or bao secret; a nil secret yields nil.
func coerce(s any, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}

	rval := reflect.ValueOf(s)
	if !rval.IsValid() || rval.IsNil() {
		return nil, nil
	}

	var sData map[string]any
	switch sec := s.(type) {
	case *bao.Secret:
		sData = sec.Data
	case *vault.Secret:
		sData = sec.Data
	}
	if sData == nil {
		return nil, nil
	}
	data := make(map[string]any, len(sData))
	maps.Copy(data, sData)
	return data, nil
}

// kvData unwraps the KV v2 "data.data" shape.
func kvData(m map[string]any) (map[string]any, bool) {
	d, ok := m["data"].(map[string]any)
	return d, ok
}
