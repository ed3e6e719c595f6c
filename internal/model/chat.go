package model

import "github.com/nestlyflow/nestlyflow-go/internal/groq"

// ChatRequest carries the latest user message plus the prior conversation
// history, exactly as returned by the previous ChatResponse.
type ChatRequest struct {
	Message string         `json:"message"`
	History []groq.Message `json:"history"`
}

// ChatResponse carries the assistant's final reply and the updated history
// the client should send back on the next turn.
type ChatResponse struct {
	Response string         `json:"response"`
	History  []groq.Message `json:"history"`
}
