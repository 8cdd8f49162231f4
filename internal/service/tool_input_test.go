package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

func TestToolInputKeepsDeclarationOrder(t *testing.T) {
	got, err := toolInput([]domain.ToolParameter{
		{Label: "zeta", Value: "last letter"},
		{Label: "alpha", Value: 1},
		{Label: "", Value: "ignored"},
		{Label: "nested", Value: map[string]any{"k": []any{1, 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"last letter","alpha":1,"nested":{"k":[1,2]}}`, got)
}

func TestToolInputEscapesLabels(t *testing.T) {
	got, err := toolInput([]domain.ToolParameter{
		{Label: "file.path", Value: "/tmp/x"},
		{Label: "a*b?", Value: true},
		{Label: "#tag|@x", Value: nil},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"file.path":"/tmp/x","a*b?":true,"#tag|@x":null}`, got)
}

func TestToolInputRepeatedLabel(t *testing.T) {
	got, err := toolInput([]domain.ToolParameter{
		{Label: "q", Value: "first"},
		{Label: "n", Value: 2},
		{Label: "q", Value: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"second","n":2}`, got)
}

func TestToolInputEmpty(t *testing.T) {
	got, err := toolInput(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}
