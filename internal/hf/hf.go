// Package hf talks to the Hugging Face hosted inference APIs: the serverless
// Inference API for image-to-text and the OpenAI-compatible router for chat
// completions.
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MARSWALLET/tagteam/inference"

	"github.com/chriskillpack/ratelimiter"
	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultInferenceURL = "https://api-inference.huggingface.co"
	DefaultRouterURL    = "https://router.huggingface.co/v1/"
)

// Outbound calls to the hosted APIs are limited to this budget.
const (
	rateLimit       = 60
	rateLimitWindow = time.Minute
)

type hf struct {
	inferenceURL string
	token        string

	client *http.Client
	oac    *oagc.Client

	// For requests to both hosted APIs.
	rl interface {
		Acquire(context.Context) error
	}
}

var _ inference.Client = &hf{}

func Init(token, inferenceURL, routerURL string, httpClient *http.Client) *hf {
	if inferenceURL == "" {
		inferenceURL = DefaultInferenceURL
	}
	if routerURL == "" {
		routerURL = DefaultRouterURL
	}

	return &hf{
		inferenceURL: strings.TrimRight(inferenceURL, "/"),
		token:        token,
		client:       httpClient,
		oac: oagc.NewClient(
			option.WithAPIKey(token),
			option.WithBaseURL(routerURL),
			option.WithHTTPClient(httpClient),
		),
		rl: ratelimiter.New(rateLimit, rateLimitWindow),
	}
}

func (h *hf) Name() string { return "huggingface" }

func (h *hf) IsHealthy() bool {
	resp, err := h.client.Get(h.inferenceURL)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (h *hf) ImageToText(ctx context.Context, image []byte, model string) (string, error) {
	if err := h.rl.Acquire(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.inferenceURL+"/models/"+model, bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image-to-text returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	// The image-to-text task answers with a one element array of generated
	// text objects.
	var generated []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &generated); err == nil && len(generated) > 0 {
		return generated[0].GeneratedText, nil
	}

	// Some models answer with a bare JSON string instead.
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s, nil
	}

	return "", fmt.Errorf("unrecognized image-to-text response: %s", strings.TrimSpace(string(body)))
}

func (h *hf) ChatCompletion(ctx context.Context, model string, messages []inference.Message, maxTokens int, temperature float64) (string, error) {
	if err := h.rl.Acquire(ctx); err != nil {
		return "", err
	}

	msgs := make([]oagc.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, oagc.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, oagc.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, oagc.UserMessage(m.Content))
		}
	}

	ccp := oagc.ChatCompletionNewParams{
		Model:       oagc.F(oagc.ChatModel(model)),
		Messages:    oagc.F(msgs),
		MaxTokens:   oagc.Int(int64(maxTokens)),
		Temperature: oagc.Float(temperature),
	}
	resp, err := h.oac.Chat.Completions.New(ctx, ccp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
