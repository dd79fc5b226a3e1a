// Package llm wraps the external generative model behind a small capability
// interface. Callers get raw JSON back and are responsible for validating it
// against the shape they asked for.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var ErrMalformedOutput = errors.New("llm: model output is not valid JSON")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Generator interface {
	// GenerateStructured asks the model for a JSON document and returns it
	// with any markdown fencing removed.
	GenerateStructured(ctx context.Context, prompt string) (json.RawMessage, error)
	// Chat continues a conversation; the last message in history is the new user turn.
	Chat(ctx context.Context, system string, history []Message) (string, error)
}

// CleanJSON strips the ```json fences models like to wrap their output in.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(clean, "```json"), strings.HasPrefix(clean, "```JSON"):
		clean = clean[len("```json"):]
	case strings.HasPrefix(clean, "```"):
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

func toRaw(text string) (json.RawMessage, error) {
	cleaned := CleanJSON(text)
	if cleaned == "" || !json.Valid([]byte(cleaned)) {
		return nil, ErrMalformedOutput
	}
	return json.RawMessage(cleaned), nil
}
