package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	responses []stubResponse
	calls     int
	lastReq   openai.ChatCompletionRequest
}

type stubResponse struct {
	content string
	err     error
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	r := s.responses[s.calls]
	s.calls++
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.content}},
		},
	}, nil
}

func newTestAgent(client *stubClient) *Agent {
	return &Agent{
		client:     client,
		model:      "llama3-70b-8192",
		maxRetries: 3,
		logger:     slog.Default(),
		sleep:      func(time.Duration) {},
	}
}

func TestGenerateRequestShape(t *testing.T) {
	client := &stubClient{responses: []stubResponse{{content: "ok"}}}
	a := newTestAgent(client)

	got, err := a.generate(context.Background(), "prompt text")

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "llama3-70b-8192", client.lastReq.Model)
	assert.InDelta(t, 0.2, client.lastReq.Temperature, 1e-9)
	assert.Equal(t, 2048, client.lastReq.MaxTokens)
	assert.InDelta(t, 0.95, client.lastReq.TopP, 1e-9)
	require.Len(t, client.lastReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, client.lastReq.Messages[0].Role)
	assert.Equal(t, "prompt text", client.lastReq.Messages[1].Content)
}

func TestGenerateRetriesOnRateLimit(t *testing.T) {
	rateLimited := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limit"}
	client := &stubClient{responses: []stubResponse{
		{err: rateLimited},
		{err: rateLimited},
		{content: "eventually"},
	}}
	a := newTestAgent(client)

	got, err := a.generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "eventually", got)
	assert.Equal(t, 3, client.calls)
}

func TestGenerateStopsOnOtherAPIErrors(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		{err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad request"}},
	}}
	a := newTestAgent(client)

	_, err := a.generate(context.Background(), "p")

	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestGenerateRetriesTransportErrors(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
	}}
	a := newTestAgent(client)

	_, err := a.generate(context.Background(), "p")

	require.Error(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestAnswerFallsBackOnFailure(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		{err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest}},
	}}
	a := newTestAgent(client)

	got := a.Answer(context.Background(), "What is entropy?", "Entropy measures disorder. Filler text here.")

	assert.Equal(t, "Entropy measures disorder.", got)
}

func TestPostProcessBulletsAndHeadings(t *testing.T) {
	in := "#Summary\n* first point\n  * second point"
	got := postProcess(in, "short")

	assert.Contains(t, got, "# Summary")
	assert.Contains(t, got, "• first point")
	assert.Contains(t, got, "• second point")
	assert.NotContains(t, got, "* ")
}

func TestPostProcessAddsHeadingToLongAnswers(t *testing.T) {
	long := "This answer runs well past one hundred characters so that the heading injection path is taken for it, definitely."
	got := postProcess(long, "what are the main findings of this paper exactly?")

	assert.True(t, len(got) > len(long))
	assert.Contains(t, got, "# Response to: what are the main findings...")
}

func TestPostProcessLeavesShortAnswersAlone(t *testing.T) {
	got := postProcess("Short answer.", "question?")
	assert.Equal(t, "Short answer.", got)
}
