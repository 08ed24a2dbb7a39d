package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"google.golang.org/genai"

	"alfredoptarigan/resume-studio/internal/models"
)

// Invocation is one structured-generation request.
type Invocation struct {
	Flow   string
	Prompt string
	// Input is the validated flow input as JSON.
	Input json.RawMessage
	// Media is attached alongside the prompt, e.g. an uploaded resume.
	Media []models.DataURI
	// Schema is the JSON schema the answer must satisfy.
	Schema json.RawMessage
}

// ModelClient sends one invocation to a hosted model and returns its raw
// text answer. Implementations make a single attempt.
type ModelClient interface {
	Generate(ctx context.Context, inv Invocation) (string, error)
}

type geminiModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

func NewGeminiModel(ctx context.Context, apiKey, modelName string, temperature float32) (ModelClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiModel{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

// Generate implements ModelClient.
func (g *geminiModel) Generate(ctx context.Context, inv Invocation) (string, error) {
	parts := []*genai.Part{{Text: inv.Prompt}}
	for _, m := range inv.Media {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: m.MIMEType, Data: m.Data}})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config, err := g.generateConfig(inv)
	if err != nil {
		return "", err
	}

	log.Printf("🤖 [%s] calling %s (prompt %d chars, %d attachment(s))\n", inv.Flow, g.modelName, len(inv.Prompt), len(inv.Media))

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		log.Printf("❌ [%s] Gemini API error: %v\n", inv.Flow, err)
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			return "", fmt.Errorf("no text content in response (finish reason %s)", resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("no text content in response")
	}

	log.Printf("📊 [%s] Gemini response received (%d chars)\n", inv.Flow, len(text))
	return text, nil
}

// generateConfig asks for JSON and, when the invocation declares one, hands
// the output schema to the endpoint so it constrains the answer.
func (g *geminiModel) generateConfig(inv Invocation) (*genai.GenerateContentConfig, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	if len(inv.Schema) > 0 {
		var schema map[string]any
		if err := json.Unmarshal(inv.Schema, &schema); err != nil {
			return nil, fmt.Errorf("failed to decode %s output schema: %w", inv.Flow, err)
		}
		config.ResponseJsonSchema = schema
	}
	return config, nil
}
