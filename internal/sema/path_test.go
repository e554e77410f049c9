package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301): both forms
	// must normalize to the same canonical path.
	composed := "core::café"
	decomposed := "core::café"
	require.NotEqual(t, composed, decomposed)

	assert.Equal(t, NormalizePath(composed), NormalizePath(decomposed))
	assert.Equal(t, "core::Widget", NormalizePath("core::Widget"))
}

func TestValidatePath(t *testing.T) {
	for _, good := range []string{"Widget", "core::Widget", "core::iter::Iterator"} {
		assert.NoError(t, ValidatePath(good), good)
	}
	for _, bad := range []string{"", " core::Widget", "core::Widget ", "core::", "::Widget", "core::::Widget"} {
		assert.Error(t, ValidatePath(bad), "%q", bad)
	}
}
