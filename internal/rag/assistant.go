package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// ErrNotReady is returned by Query before the assistant has both a retriever
// and a generator wired in.
var ErrNotReady = errors.New("rag: assistant is not ready")

const assistantPromptTemplate = `You are a helpful hospital assistant that helps patients find the right specialist and schedule appointments. Use the provided hospital information to assist patients.

If you cannot find specific information in the context, say "I apologize, but I don't have enough information about that. Please contact our hospital directly at %s for more details."

When suggesting doctors:
1. Consider their specialization and expertise
2. Check their available working hours
3. Mention their languages spoken
4. Note any emergency consultation availability

When discussing scheduling:
1. Mention the doctor's regular working hours
2. Specify if booking is required
3. Provide relevant contact information
4. Note any special instructions for appointments

Context: %s

Patient Question: %s

Assistant Response:`

// Answer is the result of one Q&A exchange.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Assistant answers patient questions over the hospital document corpus.
type Assistant struct {
	retriever Retriever
	generator TextGenerator
	topK      int
	phone     string
	logger    *logging.Logger
}

// NewAssistant creates a Q&A assistant. retriever and generator may be nil
// when the external model service is unconfigured; Query then returns
// ErrNotReady and health reporting shows the degraded state.
func NewAssistant(retriever Retriever, generator TextGenerator, topK int, phone string, logger *logging.Logger) *Assistant {
	if topK <= 0 {
		topK = 3
	}
	if strings.TrimSpace(phone) == "" {
		phone = "(555) 123-4567"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Assistant{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		phone:     phone,
		logger:    logger,
	}
}

// Ready reports whether the assistant can answer questions.
func (a *Assistant) Ready() bool {
	return a.retriever != nil && a.generator != nil
}

// Query retrieves relevant snippets and asks the generator for an answer.
func (a *Assistant) Query(ctx context.Context, question string) (*Answer, error) {
	if !a.Ready() {
		return nil, ErrNotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("rag: question cannot be empty")
	}

	snippets, err := a.retriever.Retrieve(ctx, question, a.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: retrieval failed: %w", err)
	}

	var contextText strings.Builder
	sources := make([]string, 0, len(snippets))
	for i, s := range snippets {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(s.Content)
		sources = append(sources, s.Source)
	}

	prompt := fmt.Sprintf(assistantPromptTemplate, a.phone, contextText.String(), question)
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rag: generation failed: %w", err)
	}

	return &Answer{Answer: text, Sources: sources}, nil
}
