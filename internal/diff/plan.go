package diff

import (
	"fmt"
	"io"
)

type Kind string

const (
	KindConfig Kind = "config"
	KindSecret Kind = "secret"
)

type Item struct {
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Artifact    string `json:"artifact"`
	Fingerprint string `json:"fingerprint,omitempty"`
	// Replaces names the live object an update supersedes.
	Replaces string `json:"replaces,omitempty"`
}

// Plan groups items by what applying it would do. Updates are new objects for
// an artifact whose content changed; the superseded object is listed in Deletes.
type Plan struct {
	Creates   []Item `json:"creates"`
	Updates   []Item `json:"updates"`
	Deletes   []Item `json:"deletes"`
	Unchanged []Item `json:"unchanged"`
}

func New() *Plan { return &Plan{} }

// Empty reports whether applying the plan with pruning would change nothing.
func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

func (p *Plan) Summary() string {
	return fmt.Sprintf("create:%d update:%d delete:%d unchanged:%d",
		len(p.Creates), len(p.Updates), len(p.Deletes), len(p.Unchanged))
}

// Print writes one line per item, prefixed +, ~, - or =.
func (p *Plan) Print(w io.Writer) {
	for _, it := range p.Creates {
		_, _ = fmt.Fprintf(w, "+ %s %s (%s)\n", it.Kind, it.Name, it.Artifact)
	}
	for _, it := range p.Updates {
		_, _ = fmt.Fprintf(w, "~ %s %s (%s, replaces %s)\n", it.Kind, it.Name, it.Artifact, it.Replaces)
	}
	for _, it := range p.Deletes {
		_, _ = fmt.Fprintf(w, "- %s %s (%s)\n", it.Kind, it.Name, it.Artifact)
	}
	for _, it := range p.Unchanged {
		_, _ = fmt.Fprintf(w, "= %s %s (%s)\n", it.Kind, it.Name, it.Artifact)
	}
	_, _ = fmt.Fprintln(w, p.Summary())
}
