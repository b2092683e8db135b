package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cmmoran/gatecp/internal/spec"
)

const (
	DeclarationFile = "stack.yaml"
	CatalogFile     = "catalog.yaml"
	declarationKind = "deployment"
)

// LoadDeclaration reads <root>/stack.yaml.
func LoadDeclaration(root string) (*spec.Declaration, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(abs, DeclarationFile))
	if err != nil {
		return nil, err
	}
	d, err := ParseDeclaration(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DeclarationFile, err)
	}
	d.Dir = abs
	return d, nil
}

// ParseDeclaration decodes a declaration document. Unknown fields are rejected
// so a typo never silently drops a setting.
func ParseDeclaration(b []byte) (*spec.Declaration, error) {
	var d spec.Declaration
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	if strings.ToLower(d.Kind) != declarationKind {
		return nil, fmt.Errorf("not a Deployment kind: %q", d.Kind)
	}
	if d.Services == nil {
		d.Services = map[string]spec.RawService{}
	}
	return &d, nil
}

// LoadCatalog reads <root>/catalog.yaml. A missing catalog yields (nil, nil)
// and disables the known-service check.
func LoadCatalog(root string) (*spec.Catalog, error) {
	b, err := os.ReadFile(filepath.Join(root, CatalogFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c spec.Catalog
	if err = yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", CatalogFile, err)
	}
	if c.Services == nil {
		c.Services = map[string]spec.CatalogEntry{}
	}
	return &c, nil
}
