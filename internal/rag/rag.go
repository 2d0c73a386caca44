package rag

import "context"

// Snippet is one retrieved piece of hospital documentation.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Retriever finds the documentation snippets most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// TextGenerator produces natural-language text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
