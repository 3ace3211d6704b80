package communication

import (
	"encoding/json"
	"fmt"
)

// Encode renders an operation in its JSON wire form. Operations are
// self-describing: a receiver needs no prior handshake to integrate them.
func Encode(op Operation) ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Kind, err)
	}
	return data, nil
}

// Decode parses the JSON wire form, rejecting frames whose kind is not one
// of the two known variants.
func Decode(data []byte) (Operation, error) {
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return Operation{}, fmt.Errorf("decode operation: %w", err)
	}
	if op.Kind != Insert && op.Kind != Delete {
		return Operation{}, fmt.Errorf("decode operation: unknown kind %d", int(op.Kind))
	}
	return op, nil
}
