package model

import "context"

// Chatter is the minimal model-client contract consumed by Analyzer,
// Describer, and Organic Placer. Depending on this interface rather than
// *Client lets every stage be driven by a stub in tests without spinning
// up an HTTP server.
type Chatter interface {
	Chat(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
	Probe(ctx context.Context) error
}

var _ Chatter = (*Client)(nil)
