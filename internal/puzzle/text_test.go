package puzzle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Echo", "echo"},
		{"  An   Echo!  ", "an echo"},
		{"Café", "cafe"},
		{"hello, world", "hello world"},
		{"hello,world", "helloworld"},
		{"42", "42"},
		{"", ""},
		{"?!", ""},
		{"Line\nbreak\tand tab", "line break and tab"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeText(tt.in), "input %q", tt.in)
	}
}

func TestAnswersEqual(t *testing.T) {
	require.True(t, AnswersEqual("ECHO.", "echo"))
	require.True(t, AnswersEqual(" Hello ", "hello"))
	require.False(t, AnswersEqual("echoes", "echo"))
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(TypeRiddle, "  pirates ")
	require.NoError(t, err)
	require.Contains(t, p, "riddle puzzle")
	require.Contains(t, p, "Topic: pirates.")

	p, err = BuildPrompt(TypeMath, "")
	require.NoError(t, err)
	require.NotContains(t, p, "Topic")

	_, err = BuildPrompt("poem", "")
	require.ErrorIs(t, err, ErrInvalidType)
}
