package openai

import (
	"math"
	"sync"

	"github.com/graphloom/graphloom/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient implements the ai.Client interface against any
// OpenAI-compatible chat completion endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	extractionModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ExtractionModel specifies the model used for information extraction.
// ChatURL and ChatKey configure the chat/completion API endpoint; an
// empty ChatURL uses the default OpenAI endpoint.
type NewGraphOpenAIClientParams struct {
	ExtractionModel string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)

	return &GraphOpenAIClient{
		extractionModel: params.ExtractionModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// GetMetrics returns the accumulated token usage and timing metrics.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *GraphOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
