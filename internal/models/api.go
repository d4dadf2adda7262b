package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ChangeEvent tells subscribers that a row they may be displaying has changed.
type ChangeEvent struct {
	Type     string    `json:"type"` // "lesson.created" | "review.updated" | ...
	Table    string    `json:"table"`
	RecordID uuid.UUID `json:"record_id"`
	UserID   uuid.UUID `json:"user_id"`
	Count    int       `json:"count,omitempty"`
	At       time.Time `json:"at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
