package openai

import (
	"context"
	"time"

	"github.com/amber-ici/amber/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// Invoke opens a chat-completions stream for one (model, prompt, options)
// triple and relays content deltas as token events. The stream ends with a
// Done event, or a terminal error event on connection failure.
func (c *GraphOpenAIBackend) Invoke(
	ctx context.Context,
	model string,
	prompt string,
	options ai.InvokeOptions,
) (<-chan ai.TokenEvent, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if temp, ok := options["temperature"].(float64); ok {
		body.Temperature = openai.Float(temp)
	}

	start := time.Now()
	stream := c.Client.Chat.Completions.NewStreaming(ctx, body)

	out := make(chan ai.TokenEvent, 16)

	go func() {
		defer close(out)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) == 0 {
				continue
			}
			if s := chunk.Choices[0].Delta.Content; s != "" {
				select {
				case out <- ai.TokenEvent{Response: s}:
				case <-ctx.Done():
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- ai.TokenEvent{Error: err.Error(), Done: true}:
			case <-ctx.Done():
			}
			return
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:  int(acc.Usage.TotalTokens),
			DurationMs:   time.Since(start).Milliseconds(),
		})

		select {
		case out <- ai.TokenEvent{Done: true}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

// ListModels returns the models exposed by the endpoint.
func (c *GraphOpenAIBackend) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	var models []ai.ModelInfo

	iter := c.Client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		m := iter.Current()
		models = append(models, ai.ModelInfo{
			Name:       m.ID,
			ModifiedAt: time.Unix(m.Created, 0),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// LoadModel is a no-op for hosted endpoints; models are always resident.
func (c *GraphOpenAIBackend) LoadModel(ctx context.Context, model string) error {
	return nil
}
