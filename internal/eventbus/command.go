package eventbus

import (
	"encoding/json"
	"fmt"
)

// Command is an inbound instrument-control message delivered on the
// instrument-commands topic (spec.md §6), the same topic name the
// embedder's own lifecycle events route to (instrument.lifecycle).
// Producer itself only publishes; decoding commands is the concern of
// CommandConsumer.
type Command struct {
	Action       string         `json:"action"`
	InstrumentID string         `json:"instrumentId"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// DecodeCommand parses a raw message body as a Command.
func DecodeCommand(raw []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return &cmd, nil
}
