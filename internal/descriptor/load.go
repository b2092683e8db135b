package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/cmmoran/gatecp/internal/logging"
)

const (
	EnvDescriptorJSON = "PORTAL_DESCRIPTOR_JSON"
	EnvDescriptorPath = "PORTAL_DESCRIPTOR_PATH"
)

var ErrNoDescriptor = errors.New("no descriptor configured: set " + EnvDescriptorJSON + " or " + EnvDescriptorPath)

// Load reads the descriptor from the inline variable, or failing that from
// the file the path variable names. The document must pass the schema.
func Load(getenv func(string) string) (*Descriptor, error) {
	var (
		raw    []byte
		source string
	)
	switch {
	case getenv(EnvDescriptorJSON) != "":
		raw, source = []byte(getenv(EnvDescriptorJSON)), "env"
	case getenv(EnvDescriptorPath) != "":
		path := getenv(EnvDescriptorPath)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read descriptor %s: %w", path, err)
		}
		raw, source = b, path
	default:
		return nil, ErrNoDescriptor
	}

	d, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("descriptor from %s: %w", source, err)
	}
	total, protected, public := d.Counts()
	logging.For("descriptor").WithFields(log.Fields{
		"event":         "descriptor_loaded",
		"source":        source,
		"deployment_id": d.DeploymentID,
		"total":         total,
		"protected":     protected,
		"public":        public,
	}).Info("descriptor loaded")
	return d, nil
}

// Parse validates raw against the schema and decodes it.
func Parse(raw []byte) (*Descriptor, error) {
	if err := ValidateJSON(raw); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
