package descriptor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://gatecp.local/schema/portal-descriptor.v1.schema.json"

//go:embed schema/portal-descriptor.v1.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("descriptor schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("descriptor schema: %w", err)
	}
	return s, nil
})

// SchemaError lists every schema violation found in one document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("descriptor violates schema v%s (%d problem(s)): %s", Version, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Schema returns the embedded schema document.
func Schema() []byte { return bytes.Clone(schemaJSON) }

// Validate checks d against the embedded schema. This is the one place the
// protected/authType/requiredRealmRoles invariants are enforced.
func Validate(d *Descriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return ValidateJSON(b)
}

// ValidateJSON checks a raw descriptor document against the embedded schema.
func ValidateJSON(b []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("descriptor: %w", err)
	}
	err = s.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := &SchemaError{}
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out.Problems = append(out.Problems, loc+": "+e.Error)
	}
	if len(out.Problems) == 0 {
		out.Problems = []string{ve.Error()}
	}
	return out
}
