// Package coordination implements the coordination library server (C4): a
// long-lived RPC process that serializes cross-process locks, value-set
// leasing, parallel key/value sharing, and dynamic suite injection across
// the subprocesses of one run.
package coordination

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MethodCall is one named keyword invocation, §6's wire grammar: a method
// name plus positional arguments, one JSON object per line.
type MethodCall struct {
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

// MethodResult carries either a value or an error string back to the caller;
// never both.
type MethodResult struct {
	Value interface{} `json:"value,omitempty"`
	Error *string     `json:"error,omitempty"`
}

// Encoder writes newline-delimited JSON MethodResult/MethodCall values,
// adapted from the subprocess protocol's Encoder shape (one JSON object
// per line, flushed immediately so the peer observes it without buffering
// delay).
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) EncodeCall(call MethodCall) error {
	return e.encode(call)
}

func (e *Encoder) EncodeResult(result MethodResult) error {
	return e.encode(result)
}

func (e *Encoder) encode(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("coordination: marshaling message: %w", err)
	}
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("coordination: writing message: %w", err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("coordination: writing newline: %w", err)
	}
	return e.w.Flush()
}

// Decoder reads newline-delimited JSON MethodCall/MethodResult values.
type Decoder struct {
	s *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	const maxLine = 10 * 1024 * 1024
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Decoder{s: s}
}

func (d *Decoder) DecodeCall() (MethodCall, error) {
	var call MethodCall
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return call, fmt.Errorf("coordination: reading call: %w", err)
		}
		return call, io.EOF
	}
	if err := json.Unmarshal(d.s.Bytes(), &call); err != nil {
		return call, fmt.Errorf("coordination: unmarshaling call: %w", err)
	}
	return call, nil
}

func (d *Decoder) DecodeResult() (MethodResult, error) {
	var result MethodResult
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return result, fmt.Errorf("coordination: reading result: %w", err)
		}
		return result, io.EOF
	}
	if err := json.Unmarshal(d.s.Bytes(), &result); err != nil {
		return result, fmt.Errorf("coordination: unmarshaling result: %w", err)
	}
	return result, nil
}
