package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/flowforge/automata/internal/domain"
)

// templateContext exposes prior tasks' outputs to a step's URL/Selector
// fields via Go template syntax, adapted from the teacher's
// internal/engine rendering context: {{ .Tasks.fetch.price }} reads the
// "price" key from the output of the task whose Output.StoreAs is "fetch".
type templateContext struct {
	Tasks map[string]map[string]any
	Env   map[string]string
}

func newTemplateContext(env map[string]string) *templateContext {
	if env == nil {
		env = make(map[string]string)
	}
	return &templateContext{Tasks: make(map[string]map[string]any), Env: env}
}

func (c *templateContext) recordOutput(storeAs string, data map[string]any) {
	if storeAs == "" {
		return
	}
	c.Tasks[storeAs] = data
}

var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"trim":      strings.TrimSpace,
	"hasPrefix": strings.HasPrefix,
}

func renderString(tmpl string, ctx *templateContext) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// renderStep returns a copy of step with URL and Selector rendered
// against ctx, leaving the schema and timeout untouched.
func renderStep(step domain.Step, ctx *templateContext) (domain.Step, error) {
	rendered := step

	if step.URL != "" {
		url, err := renderString(step.URL, ctx)
		if err != nil {
			return step, fmt.Errorf("render url: %w", err)
		}
		rendered.URL = url
	}

	if step.Selector != "" {
		sel, err := renderString(step.Selector, ctx)
		if err != nil {
			return step, fmt.Errorf("render selector: %w", err)
		}
		rendered.Selector = sel
	}

	return rendered, nil
}
