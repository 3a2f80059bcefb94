package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the response wrapper of every repository endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

type rawEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func openEnvelope(op string, body []byte) (json.RawMessage, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &EnvelopeError{Op: op, Reason: fmt.Sprintf("decode: %v", err)}
	}
	if env.Success == nil {
		return nil, &EnvelopeError{Op: op, Reason: "missing success flag"}
	}
	if !*env.Success {
		reason := env.Error
		if reason == "" {
			reason = "request was not successful"
		}
		return nil, &EnvelopeError{Op: op, Reason: reason}
	}
	return env.Data, nil
}

// decodeList opens body and returns its data as a list of records. Numbers
// are kept as json.Number.
func decodeList(op string, body []byte) ([]any, error) {
	data, err := openEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &EnvelopeError{Op: op, Reason: "data is not a list"}
	}
	var records []any
	if err := decode(trimmed, &records); err != nil {
		return nil, &EnvelopeError{Op: op, Reason: fmt.Sprintf("decode data: %v", err)}
	}
	return records, nil
}

// decodeObject opens body and returns its data as a single record.
func decodeObject(op string, body []byte) (map[string]any, error) {
	data, err := openEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &EnvelopeError{Op: op, Reason: "data is not an object"}
	}
	var record map[string]any
	if err := decode(trimmed, &record); err != nil {
		return nil, &EnvelopeError{Op: op, Reason: fmt.Sprintf("decode data: %v", err)}
	}
	return record, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
