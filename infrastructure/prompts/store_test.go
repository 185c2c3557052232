package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-eval/argus/internal/domain"
)

func TestStoreRendersTemplate(t *testing.T) {
	t.Parallel()

	store, err := NewStore()
	require.NoError(t, err)

	prompt, err := store.Render("factcheck", "score_claim", map[string]string{
		"claim":    "the sun rises in the west",
		"evidence": "the sun rises in the east",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, `Claim: "the sun rises in the west"`)
	assert.Contains(t, prompt, `Evidence: "the sun rises in the east"`)
	assert.Contains(t, prompt, "Likert Scale")
	assert.NotContains(t, prompt, "{claim}")
}

func TestStoreRendersWithoutVars(t *testing.T) {
	t.Parallel()

	store, err := NewStore()
	require.NoError(t, err)

	prompt, err := store.Render("review", "review_and_suggest", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "'publishability'")
	assert.Contains(t, prompt, "{queries}")
}

func TestStoreMissingTemplate(t *testing.T) {
	t.Parallel()

	store, err := NewStore()
	require.NoError(t, err)

	_, err = store.Render("factcheck", "no-such-stage", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingTemplate)

	_, err = store.Render("no-such-workflow", "score_claim", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingTemplate)
}

func TestStoreKnownStagesPresent(t *testing.T) {
	t.Parallel()

	store, err := NewStore()
	require.NoError(t, err)

	stages := map[string][]string{
		"factcheck": {"generate_query", "score_claim"},
		"review": {
			"generate_reviewer", "generate_questions", "generate_sub_queries",
			"answer_sub_query", "compile_answer", "review_and_suggest", "summary",
		},
	}
	for workflow, names := range stages {
		for _, stage := range names {
			_, err := store.Render(workflow, stage, nil)
			assert.NoError(t, err, "%s/%s", workflow, stage)
		}
	}
}
