package ai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func TestGeminiPartsPrefixesSystemMessages(t *testing.T) {
	parts := geminiParts([]Message{
		{Role: RoleSystem, Content: "grade strictly"},
		{Role: RoleUser, Content: "essay"},
	})

	require.Equal(t, []genai.Part{genai.Text("Instruction: grade strictly"), genai.Text("essay")}, parts)
}
