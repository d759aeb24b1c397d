package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors
var (
	ErrEmptyGroupID   = errors.New("group_id cannot be empty")
	ErrEmptyMessages  = errors.New("messages cannot be empty")
	ErrGroupIDTooLong = errors.New("group_id exceeds maximum length (256)")
	ErrContentTooLong = errors.New("content exceeds maximum length (1MB)")
)

// Field limits guard against oversized requests.
const (
	MaxGroupIDLength = 256
	MaxContentLength = 1024 * 1024
	MaxMessagesCount = 1000
)

// AddMessagesRequest submits conversation turns for ingestion. An empty
// GroupID lands episodes in the server's configured group.
type AddMessagesRequest struct {
	GroupID   string     `json:"group_id,omitempty"`
	Messages  []Message  `json:"messages" binding:"required,dive"`
	Reference *time.Time `json:"reference,omitempty"`
}

// Validate checks an AddMessagesRequest.
func (r *AddMessagesRequest) Validate() error {
	if len(r.GroupID) > MaxGroupIDLength {
		return ErrGroupIDTooLong
	}
	if len(r.Messages) == 0 {
		return ErrEmptyMessages
	}
	if len(r.Messages) > MaxMessagesCount {
		return errors.New("messages count exceeds maximum (1000)")
	}
	for i, msg := range r.Messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// ClearDataRequest confirms a destructive wipe. GroupID must name the
// group the server is configured for; wiping arbitrary groups over the API
// is not supported.
type ClearDataRequest struct {
	GroupID string `json:"group_id" binding:"required"`
}

// Validate checks a ClearDataRequest.
func (r *ClearDataRequest) Validate() error {
	if strings.TrimSpace(r.GroupID) == "" {
		return ErrEmptyGroupID
	}
	if len(r.GroupID) > MaxGroupIDLength {
		return ErrGroupIDTooLong
	}
	return nil
}

// IngestResponse acknowledges an ingest operation.
type IngestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ProcessID string `json:"process_id,omitempty"`
}
