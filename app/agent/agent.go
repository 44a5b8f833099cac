// Package agent talks to the answer-generation collaborator and assembles
// the evidence context it is prompted with. Generation failures degrade to a
// local extractive answer; callers never see an error.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"

	"assistant/types"
)

const systemPrompt = "You are a helpful research assistant that provides accurate, well-structured answers with proper citations."

const qaTemplate = `You are a helpful research assistant. Your task is to provide accurate, detailed answers based on the provided context.

FORMATTING GUIDELINES:
1. Structure your response with clear sections using headings (e.g., "Introduction", "Key Findings", "Conclusion")
2. Use numbered or bulleted lists for multiple points, not asterisks (*)
3. When citing papers, include the title and a link in this format: [Paper Title](URL)
4. Use bold for important terms or concepts
5. Break long paragraphs into smaller, more digestible chunks
6. For technical content, clearly explain complex terms
7. End with a concise summary or conclusion

RESPONSE APPROACH:
- If the information in the context is sufficient, provide a comprehensive, structured response
- If the question is a simple greeting, respond in a friendly, conversational manner
- If you cannot answer based on the context, provide a helpful response based on your general knowledge

When analyzing documents, pay special attention to:
- Key findings and conclusions
- Methodologies used
- Data presented
- Author perspectives and arguments

Context:
%s

Question:
%s

Remember to provide a well-structured answer with proper formatting and citations.`

// Answerer is the answer-generation collaborator interface consumed by the
// orchestrator.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) string
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Agent generates answers through a Groq-hosted model over the OpenAI wire
// protocol.
type Agent struct {
	client     completionClient
	model      string
	maxRetries int
	logger     *slog.Logger

	sleep func(time.Duration) // swapped out in tests
}

var _ Answerer = (*Agent)(nil)

func New(cfg types.Config) *Agent {
	clientCfg := openai.DefaultConfig(cfg.GroqAPIKey)
	clientCfg.BaseURL = cfg.GroqBaseURL
	return &Agent{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.GroqModel,
		maxRetries: 3,
		logger:     slog.Default(),
		sleep:      time.Sleep,
	}
}

// Answer prompts the model with the question embedded in the QA template.
// After retries are exhausted it falls back to the local extractive answer.
func (a *Agent) Answer(ctx context.Context, question, contextText string) string {
	prompt := fmt.Sprintf(qaTemplate, contextText, question)

	if n, err := countTokens(prompt); err == nil {
		a.logger.Debug("prompt assembled", "tokens", n, "chars", len(prompt))
	}

	answer, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Error("answer generation failed, using extractive fallback", "error", err)
		return FallbackAnswer(question, contextText)
	}
	return postProcess(answer, question)
}

// generate runs the completion with bounded retries: exponential backoff on
// rate limits, a short fixed delay on transport failures, and no retry on
// other API errors.
func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			MaxTokens:   2048,
			TopP:        0.95,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("completion returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode != http.StatusTooManyRequests {
				return "", fmt.Errorf("completion rejected: %w", err)
			}
			wait := time.Duration(1<<attempt) * time.Second
			a.logger.Warn("rate limited", "attempt", attempt, "wait", wait)
			a.sleep(wait)
			continue
		}

		a.logger.Warn("completion request failed", "attempt", attempt, "error", err)
		a.sleep(time.Second)
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", a.maxRetries, lastErr)
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

var (
	bulletRe  = regexp.MustCompile(`(?m)^\s*\*\s+`)
	headingRe = regexp.MustCompile(`(?m)^(#{1,6})([^#\s])`)
)

// postProcess normalizes the model's markdown: asterisk list markers become
// bullets, cramped headings get their space, and substantial answers that
// lack a heading receive one derived from the question.
func postProcess(answer, question string) string {
	answer = bulletRe.ReplaceAllString(answer, "• ")
	answer = headingRe.ReplaceAllString(answer, "$1 $2")

	if !strings.HasPrefix(strings.TrimSpace(answer), "#") && len(answer) > 100 {
		words := strings.Fields(strings.Trim(question, "?!. "))
		if len(words) > 5 {
			words = words[:5]
		}
		topic := strings.Join(words, " ")
		answer = fmt.Sprintf("# Response to: %s...\n\n%s", topic, answer)
	}
	return answer
}
