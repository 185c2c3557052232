// Package prompts holds the prompt templates used by the evaluation
// workflows. Templates are embedded at build time and addressed by
// (workflow, stage); placeholders use {name} syntax.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

//go:embed prompts.yaml
var rawTemplates []byte

// Store resolves embedded prompt templates. It is immutable after
// construction and safe for concurrent use.
type Store struct {
	templates map[string]map[string]string
}

// NewStore parses the embedded template file. A parse failure is a build
// defect, so callers should treat an error here as fatal.
func NewStore() (*Store, error) {
	var templates map[string]map[string]string
	if err := yaml.Unmarshal(rawTemplates, &templates); err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}
	return &Store{templates: templates}, nil
}

// Render looks up the template for the given workflow and stage and
// substitutes {name} placeholders with the provided variables.
func (s *Store) Render(workflow, stage string, vars map[string]string) (string, error) {
	stages, ok := s.templates[workflow]
	if !ok {
		return "", fmt.Errorf("workflow %q: %w", workflow, domain.ErrMissingTemplate)
	}

	tmpl, ok := stages[stage]
	if !ok {
		return "", fmt.Errorf("workflow %q stage %q: %w", workflow, stage, domain.ErrMissingTemplate)
	}

	if len(vars) == 0 {
		return tmpl, nil
	}

	pairs := make([]string, 0, 2*len(vars))
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

var _ ports.PromptStore = (*Store)(nil)
