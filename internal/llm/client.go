package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the service answers without choices.
var ErrEmptyResponse = errors.New("empty response from text-generation service")

// Request is one system+user exchange with the text-generation service.
type Request struct {
	Model       string
	Temperature float32
	System      string
	User        string
}

// Generator is the text-generation service in single-shot and incremental mode.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, onFragment func(fragment string) error) error
}

// OpenAI implements Generator on top of the chat completions API.
type OpenAI struct {
	cli *openai.Client
}

func NewOpenAI(apiKey, baseURL string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAI{cli: openai.NewClientWithConfig(cfg)}
}

func (r Request) chat() openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       r.Model,
		Temperature: r.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.System},
			{Role: openai.ChatMessageRoleUser, Content: r.User},
		},
	}
}

// Complete returns the first choice's content verbatim.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.cli.CreateChatCompletion(ctx, req.chat())
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream calls onFragment for every non-empty content delta, in order.
// A non-nil error from onFragment stops the stream and is returned.
func (o *OpenAI) Stream(ctx context.Context, req Request, onFragment func(string) error) error {
	cr := req.chat()
	cr.Stream = true

	stream, err := o.cli.CreateChatCompletionStream(ctx, cr)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := onFragment(content); err != nil {
				return err
			}
		}
	}
}
