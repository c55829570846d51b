package service

import (
	"strings"
	"testing"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTemplates(t *testing.T) {
	summaries := ListTemplates()

	require.Len(t, summaries, 5)
	assert.Equal(t, "software_development", summaries[0].ID)
	assert.Equal(t, "Software Development Project", summaries[0].Name)
	assert.Equal(t, 7, summaries[0].NumTasks)
	assert.Equal(t, "business_strategy", summaries[4].ID)
	assert.Equal(t, 5, summaries[4].NumTasks)
}

func TestGetTemplate(t *testing.T) {
	tmpl, err := GetTemplate("event_planning")
	require.NoError(t, err)
	assert.Equal(t, "Event Planning Workflow", tmpl.WorkflowName)
	require.Len(t, tmpl.Tasks, 5)
	assert.Equal(t, "event_concept", tmpl.Tasks[0].Name)

	_, err = GetTemplate("nonexistent")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestTemplatesProduceValidWorkflows(t *testing.T) {
	for _, summary := range ListTemplates() {
		t.Run(summary.ID, func(t *testing.T) {
			tmpl, err := GetTemplate(summary.ID)
			require.NoError(t, err)

			wf := tmpl.ApplyToContext("A project description for validation purposes.")
			assert.NoError(t, domain.ValidateWorkflow(&wf))
		})
	}
}

func TestApplyToContext(t *testing.T) {
	tmpl, err := GetTemplate("marketing_campaign")
	require.NoError(t, err)

	originalPrompt := tmpl.Tasks[0].Prompt

	wf := tmpl.ApplyToContext("Launch plan for a new espresso machine.")

	require.Len(t, wf.Tasks, len(tmpl.Tasks))
	assert.Equal(t, "Marketing Campaign Planning Workflow", wf.WorkflowName)
	for _, task := range wf.Tasks {
		assert.Contains(t, task.Prompt, "PROJECT CONTEXT:")
		assert.Contains(t, task.Prompt, "Launch plan for a new espresso machine.")
		assert.True(t, strings.HasSuffix(task.Prompt,
			"Base your analysis and recommendations specifically on the project context provided above."))
	}

	// Registry copy must stay untouched.
	fresh, err := GetTemplate("marketing_campaign")
	require.NoError(t, err)
	assert.Equal(t, originalPrompt, fresh.Tasks[0].Prompt)
}

func TestSuggestTemplate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"software keywords", "We are building a web application with a REST API", "software_development"},
		{"marketing keywords", "Q3 advertising push across social channels", "marketing_campaign"},
		{"research keywords", "A longitudinal study testing our hypothesis", "research_project"},
		{"event keywords", "Annual conference for 500 attendees", "event_planning"},
		{"strategy keywords", "Five-year growth strategy for the company", "business_strategy"},
		{"software wins ties", "Marketing software for campaign management", "software_development"},
		{"no match falls back", "Plant a vegetable garden this spring", "software_development"},
		{"case insensitive", "EVENT VENUE BOOKING", "event_planning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestTemplate(tt.text))
		})
	}
}
