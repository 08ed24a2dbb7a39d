package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFlows(t *testing.T) (*Flows, *FakeModel) {
	t.Helper()
	model := NewFakeModel()
	prompts, err := NewPromptBuilder("")
	require.NoError(t, err)
	flows, err := NewFlows(NewModelInvoker(model, prompts))
	require.NoError(t, err)
	return flows, model
}

// garbagePDF is a data URI that claims to be a PDF but cannot be parsed.
const garbagePDF = "data:application/pdf;base64,JVBERi0xLjQKZ2FyYmFnZQ=="
