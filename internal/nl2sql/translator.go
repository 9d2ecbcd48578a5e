package nl2sql

import "context"

// Message is one prior conversation turn, formatted into the prompt so the
// model can resolve follow-up questions ("same but only for 2024").
type Message struct {
	Role    string `json:"role"` // "human" or "ai"
	Content string `json:"content"`
}

type Request struct {
	Schema   string    `json:"schema"`
	History  []Message `json:"history"`
	Question string    `json:"question"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
