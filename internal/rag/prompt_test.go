package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemblePromptCitations(t *testing.T) {
	prompt := AssemblePrompt("what powers cells?", []Passage{
		{Text: "Mitochondria produce ATP.", Source: "bio.pdf", Page: 3},
		{Text: "Glycolysis happens in the cytosol.", Source: "chem.pdf", Page: 12},
	})

	assert.Contains(t, prompt, "what powers cells?")
	assert.Contains(t, prompt, "Mitochondria produce ATP.\n[bio.pdf, page 3]")
	assert.Contains(t, prompt, "Glycolysis happens in the cytosol.\n[chem.pdf, page 12]")
	assert.Contains(t, prompt, "Use ONLY the provided context")
	assert.Contains(t, prompt, "Do NOT hallucinate")
}

func TestAssemblePromptPassageOrder(t *testing.T) {
	prompt := AssemblePrompt("q", []Passage{
		{Text: "first", Source: "a.pdf", Page: 1},
		{Text: "second", Source: "a.pdf", Page: 2},
	})

	assert.Less(t, strings.Index(prompt, "first"), strings.Index(prompt, "second"))
}

func TestAssemblePromptNoPassages(t *testing.T) {
	prompt := AssemblePrompt("obscure question", nil)

	assert.Contains(t, prompt, "obscure question")
	assert.Contains(t, prompt, noContextNotice)
	assert.NotContains(t, prompt, "page 0")
}
