package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
)

const (
	describeMaxTokens = 300
	storyMaxTokens    = 800
	storyTemperature  = 0.7
)

// OpenAIClient implements Generator with the OpenAI chat and images APIs.
type OpenAIClient struct {
	client      openai.Client
	visionModel string
	storyModel  string
	imageModel  string
}

// NewOpenAIClient creates an OpenAI-backed generator.
func NewOpenAIClient(opts Options) *OpenAIClient {
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(strings.TrimSuffix(opts.BaseURL, "/")+"/"))
	}
	if opts.Timeout > 0 {
		requestOptions = append(requestOptions, option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}

	return &OpenAIClient{
		client:      openai.NewClient(requestOptions...),
		visionModel: opts.VisionModel,
		storyModel:  opts.StoryModel,
		imageModel:  opts.ImageModel,
	}
}

// DescribeImage sends the prompt and the image to the vision model.
func (c *OpenAIClient) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	log.Debug("describing image", "model", c.visionModel)

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.visionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
		MaxTokens: openai.Int(describeMaxTokens),
	})
	if err != nil {
		return "", asRequestError("describe image", err)
	}
	return firstChoice(completion)
}

// WriteStory completes the story prompt with the story model.
func (c *OpenAIClient) WriteStory(ctx context.Context, prompt string) (string, error) {
	log.Debug("writing story", "model", c.storyModel)

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.storyModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(storyTemperature),
		MaxTokens:   openai.Int(storyMaxTokens),
	})
	if err != nil {
		return "", asRequestError("write story", err)
	}
	return firstChoice(completion)
}

// Illustrate generates a single 1024x1024 image and returns its URL.
func (c *OpenAIClient) Illustrate(ctx context.Context, prompt string) (string, error) {
	log.Debug("generating illustration", "model", c.imageModel)

	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.imageModel),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		Quality:        openai.ImageGenerateParamsQualityStandard,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", asRequestError("generate illustration", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: image response without url", assistants.ErrMalformedResponse)
	}
	return resp.Data[0].URL, nil
}

func firstChoice(completion *openai.ChatCompletion) (string, error) {
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", assistants.ErrMalformedResponse)
	}
	return completion.Choices[0].Message.Content, nil
}

// asRequestError maps SDK API errors onto the shared RequestError type.
func asRequestError(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &assistants.RequestError{Op: op, StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	return fmt.Errorf("%s: %w", op, err)
}
