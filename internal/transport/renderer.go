package transport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Liquid renders subjects and bodies as Liquid templates. Parsed templates
// are cached by source text.
type Liquid struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewLiquid creates a renderer with the mailing filters registered.
func NewLiquid() *Liquid {
	engine := liquid.NewEngine()

	// {{ full_name | first_word }}
	engine.RegisterFilter("first_word", func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return s
	})

	return &Liquid{engine: engine}
}

// Render renders tmpl with vars.
func (l *Liquid) Render(tmpl string, vars map[string]any) (string, error) {
	if !strings.Contains(tmpl, "{{") && !strings.Contains(tmpl, "{%") {
		return tmpl, nil
	}

	var tpl *liquid.Template
	if cached, ok := l.cache.Load(tmpl); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := l.engine.ParseString(tmpl)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		l.cache.Store(tmpl, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
