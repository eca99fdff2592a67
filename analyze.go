package tagteam

import (
	"context"
	"fmt"
	"strings"

	"github.com/MARSWALLET/tagteam/inference"
)

// Logic stage sampling parameters. These are internal to the orchestrator
// and not exposed to callers.
const (
	maxAnswerTokens   = 500
	answerTemperature = 0.7
)

const promptTemplate = "User uploaded an image containing this text: %s. " +
	"Act as a helpful assistant and answer the user's request based on this."

// Analysis is the result of a completed two-stage pipeline run.
type Analysis struct {
	VisionOutput string `json:"vision_output"`
	FinalAnswer  string `json:"final_answer"`
}

// Analyze runs the two-stage pipeline over the uploaded image bytes: the
// vision model first extracts a textual description, then the logic model
// answers a prompt built around that description. The stages run strictly in
// sequence. A failure is returned as *VisionError or *LogicError depending
// on which call broke.
func (t *Tagteam) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	description, err := t.imageToText(ctx, image)
	if err != nil {
		return nil, &VisionError{Err: err}
	}
	description = strings.TrimSpace(description)

	answer, err := t.chatCompletion(ctx, buildPrompt(description))
	if err != nil {
		return nil, &LogicError{Err: err}
	}

	return &Analysis{
		VisionOutput: description,
		FinalAnswer:  answer,
	}, nil
}

func (t *Tagteam) imageToText(ctx context.Context, image []byte) (string, error) {
	if t.visionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.visionTimeout)
		defer cancel()
	}

	return t.ImageToText(ctx, image, VisionModelID)
}

func (t *Tagteam) chatCompletion(ctx context.Context, prompt string) (string, error) {
	if t.logicTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.logicTimeout)
		defer cancel()
	}

	messages := []inference.Message{
		{Role: inference.RoleUser, Content: prompt},
	}
	return t.ChatCompletion(ctx, LogicModelID, messages, maxAnswerTokens, answerTemperature)
}

// buildPrompt embeds the vision stage output into the fixed instruction
// template. The same template is used for every request, no branching on the
// description content.
func buildPrompt(description string) string {
	return fmt.Sprintf(promptTemplate, description)
}
