package sidecar

import (
	"fmt"
	"strings"

	"github.com/cmmoran/gatecp/internal/render"
)

const envFileTemplate = `# oauth2-proxy settings for {{ .ServiceID }}
{{- range .Settings }}
{{ .Key }}={{ squote .Value }}
{{- end }}
`

// Render writes env as a dotenv file with every value single-quoted.
func Render(e *render.Engine, env Environment) ([]byte, error) {
	for _, kv := range env.Settings {
		if strings.ContainsAny(kv.Value, "'\n") {
			return nil, fmt.Errorf("sidecar %q: %s cannot be quoted for an env file", env.ServiceID, kv.Key)
		}
	}
	return e.Render("sidecar-"+env.ServiceID, envFileTemplate, env)
}
