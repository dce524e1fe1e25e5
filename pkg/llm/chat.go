package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string
}

// ChatEngine is an engine that uses an LLM to generate grounded chat
// responses. Every call is stateless; conversational memory arrives as the
// explicit history argument.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo-16k"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful assistant answering questions about the Murlis. " +
			"Answer using only the provided context. If the answer is not in the context, say that you do not know."
	}

	opts := []openai.Option{openai.WithModel(config.Model)}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// Generate answers the question from the retrieved segments and prior turns.
func (ce *ChatEngine) Generate(ctx context.Context, question string, segments []models.Segment, history []models.Exchange) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate),
	}
	if len(segments) > 0 {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, formatContext(segments)))
	}
	for _, turn := range history {
		content = append(content,
			llms.TextParts(schema.ChatMessageTypeHuman, turn.Question),
			llms.TextParts(schema.ChatMessageTypeAI, turn.Answer),
		)
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, enhanceQuestion(question)))

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", classify(err))
	}
	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}

// formatContext lays the retrieved segments out in retrieval order, each
// tagged with its source document.
func formatContext(segments []models.Segment) string {
	var contextBuilder strings.Builder
	contextBuilder.WriteString("Context:\n\n")
	for _, seg := range segments {
		contextBuilder.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", seg.Source, seg.Text))
	}
	return contextBuilder.String()
}

func enhanceQuestion(question string) string {
	return fmt.Sprintf("According to the context: %s", question)
}
