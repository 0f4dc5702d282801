package rag

import (
	"fmt"
	"strings"
)

// promptTemplate grounds the model in retrieved context and demands
// citations. %s slots are query, then context.
const promptTemplate = `You are a research assistant. Use ONLY the provided context to answer the user query.

Question:
%s

Context:
%s

Instructions:
- If the user asks a question, provide a concise answer with citations like [source, page].
- If the user asks for a summary, respond in a well-structured paragraph.
- Always include citations from metadata in square brackets [source, page].
- Do NOT hallucinate, guess, or add information not in the context.

Answer:`

// noContextNotice replaces the context block when retrieval found nothing,
// so the model declines instead of answering from its own weights.
const noContextNotice = "No relevant context was found in the indexed documents. " +
	"Tell the user you could not find relevant information for their question."

// summaryPreamble rewrites a query for summary mode before retrieval.
const summaryPreamble = "Provide a concise structured summary for this question:\n"

// AssemblePrompt builds the completion prompt from a query and its
// retrieved passages. Each passage carries a [source, page N] citation tag
// the instructions tell the model to echo.
func AssemblePrompt(query string, passages []Passage) string {
	if len(passages) == 0 {
		return fmt.Sprintf(promptTemplate, query, noContextNotice)
	}

	var b strings.Builder
	for _, p := range passages {
		b.WriteString(p.Text)
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%s, page %d]\n\n", p.Source, p.Page)
	}

	return fmt.Sprintf(promptTemplate, query, strings.TrimRight(b.String(), "\n"))
}
