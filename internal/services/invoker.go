package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alfredoptarigan/resume-studio/internal/models"
)

// InvocationError is a remote failure: transport, timeout or refusal.
type InvocationError struct {
	Flow string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("flow %s failed: %v", e.Flow, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ModelInvoker checks a flow's input, renders its prompt and calls the model
// once.
type ModelInvoker struct {
	client  ModelClient
	prompts *PromptBuilder
}

func NewModelInvoker(client ModelClient, prompts *PromptBuilder) *ModelInvoker {
	return &ModelInvoker{client: client, prompts: prompts}
}

// Invoke returns the model's JSON answer with any markdown fences removed.
// The answer is checked against outSchema by the caller through Parse.
// Input violations are reported as *ValidationError, remote failures as
// *InvocationError.
func (mi *ModelInvoker) Invoke(ctx context.Context, flow string, input any, media []models.DataURI, inSchema, outSchema *Schema) ([]byte, error) {
	if err := inSchema.ValidateValue(input); err != nil {
		return nil, err
	}

	rawInput, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s input: %w", flow, err)
	}

	prompt, err := mi.prompts.Build(flow, input)
	if err != nil {
		return nil, err
	}
	prompt = prompt + "\n\n" + mi.prompts.BuildOutputContract(outSchema)

	response, err := mi.client.Generate(ctx, Invocation{
		Flow:   flow,
		Prompt: prompt,
		Input:  rawInput,
		Media:  media,
		Schema: outSchema.Raw(),
	})
	if err != nil {
		return nil, &InvocationError{Flow: flow, Err: err}
	}

	return []byte(extractJSON(response)), nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
