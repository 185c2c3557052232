// Package domain contains pure, dependency-free domain models and types
// for the paper evaluation engine.
package domain

// Paper identifies the document under evaluation. It is immutable once
// created and is passed by reference into both workflows; neither
// workflow mutates it.
type Paper struct {
	// Path is the storage location of the document (a filesystem path or
	// an opaque handle understood by the configured extractor).
	Path string `json:"path"`

	// Title is the paper's title as submitted.
	Title string `json:"title"`

	// Topic is a free-text label for the paper's research area.
	Topic string `json:"topic"`

	// Sections lists the paper's section names in order. The review
	// workflow generates one reviewer question per section.
	Sections []string `json:"sections"`
}

// NumQuestions returns how many top-level questions each reviewer asks,
// which is one per declared section.
func (p *Paper) NumQuestions() int {
	return len(p.Sections)
}
