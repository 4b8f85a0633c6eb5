package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCategories(t *testing.T) {
	require.Equal(t, CategoryRuntime, CodeStackUnderflow.Category)
	require.Equal(t, CategoryMemory, CodeOutOfBoundsMemory.Category)
	require.Equal(t, CategoryResource, CodeResourceLimitExceeded.Category)
	require.Equal(t, CategoryValidation, CodeTypeMismatch.Category)
	require.Equal(t, CategoryComponent, CodeComponentNotFound.Category)
}

func TestNewError(t *testing.T) {
	err := New(CodeDivisionByZero)
	require.Error(t, err)
	require.Contains(t, err.Error(), "division")
}
