package ports

// PromptStore resolves named prompt templates for a workflow stage.
// Templates are addressed by (workflow, stage); a missing template is a
// configuration error, not a runtime condition to recover from.
type PromptStore interface {
	// Render looks up the template for the given workflow and stage and
	// substitutes the provided variables. It returns an error wrapping
	// domain.ErrMissingTemplate when no template is registered.
	Render(workflow, stage string, vars map[string]string) (string, error)
}
