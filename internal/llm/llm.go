package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrTransport covers request failures and non-2xx API responses.
	ErrTransport = errors.New("llm request failed")
	// ErrInvalidResponse covers replies that carry no usable JSON object.
	ErrInvalidResponse = errors.New("llm returned an unusable response")
)

// StructuredRequest asks the model for an object matching Schema.
type StructuredRequest struct {
	System            string
	Prompt            string
	SchemaName        string
	SchemaDescription string
	Schema            map[string]any
}

// Client is a minimal structured-completion interface to allow pluggable providers.
type Client interface {
	Complete(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
}
