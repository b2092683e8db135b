package render

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

type Options struct {
	// Strict fails on references to missing map keys instead of printing "<no value>".
	Strict bool
	// Funcs are merged over the sprig function map.
	Funcs template.FuncMap
}

type Engine struct {
	funcs  template.FuncMap
	strict bool
}

func NewEngine(opts Options) *Engine {
	fm := sprig.TxtFuncMap()
	for k, v := range opts.Funcs {
		fm[k] = v
	}
	return &Engine{funcs: fm, strict: opts.Strict}
}

func (e *Engine) parse(name, tpl string) (*template.Template, error) {
	t := template.New(name).Funcs(e.funcs)
	if e.strict {
		t = t.Option("missingkey=error")
	}
	return t.Parse(tpl)
}

func (e *Engine) RenderString(name, tpl string, data any) (string, error) {
	b, err := e.Render(name, tpl, data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e *Engine) Render(name, tpl string, data any) ([]byte, error) {
	t, err := e.parse(name, tpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
