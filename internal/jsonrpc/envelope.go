package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// EnvelopeError describes why a frame could not be turned into a Request. It
// carries the error code the response must use and, when the frame was
// well-formed JSON with a recoverable ID, the ID to echo back. Frames that
// fail JSON decoding have no recoverable ID and report a null one.
type EnvelopeError struct {
	Code ErrorCode
	ID   *RequestID
	msg  string
}

func (e *EnvelopeError) Error() string { return e.msg }

func parseError(format string, a ...any) *EnvelopeError {
	return &EnvelopeError{Code: ErrorCodeParseError, msg: fmt.Sprintf(format, a...)}
}

func invalidRequest(id *RequestID, format string, a ...any) *EnvelopeError {
	return &EnvelopeError{Code: ErrorCodeInvalidRequest, ID: id, msg: fmt.Sprintf(format, a...)}
}

// DecodeEnvelope validates one raw frame and produces a Request (ID present)
// or Notification (ID absent or explicit null). The returned error, when
// non-nil, is always an *EnvelopeError. The checks, in order:
//
//   - the frame must be a JSON object (ParseError otherwise)
//   - "jsonrpc" must equal "2.0" (InvalidRequest)
//   - "method" must be a non-empty string (InvalidRequest)
//   - "id", when present, must be a string, an integer, or explicit null;
//     any other type, including fractional numbers, is InvalidRequest
//
// Envelope validation happens before any capability lookup so that malformed
// envelopes never reach handler code.
func DecodeEnvelope(frame []byte) (*Request, *EnvelopeError) {
	var probe any
	if err := json.Unmarshal(frame, &probe); err != nil {
		return nil, parseError("invalid JSON: %v", err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, invalidRequest(nil, "request must be a JSON object")
	}

	var raw struct {
		JSONRPCVersion *string         `json:"jsonrpc"`
		Method         json.RawMessage `json:"method"`
		Params         json.RawMessage `json:"params"`
		ID             json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, parseError("invalid JSON: %v", err)
	}

	// Recover the ID first so envelope-shape errors can echo it when it is
	// itself valid.
	var id *RequestID
	if len(raw.ID) > 0 {
		id = &RequestID{}
		if err := id.UnmarshalJSON(raw.ID); err != nil {
			return nil, invalidRequest(nil, "invalid request ID: %v", err)
		}
	}

	if raw.JSONRPCVersion == nil || *raw.JSONRPCVersion != ProtocolVersion {
		return nil, invalidRequest(id, "jsonrpc version must be %q", ProtocolVersion)
	}

	if len(raw.Method) == 0 {
		return nil, invalidRequest(id, "missing method")
	}
	var method string
	if err := json.Unmarshal(raw.Method, &method); err != nil || method == "" {
		return nil, invalidRequest(id, "method must be a non-empty string")
	}

	return &Request{
		JSONRPCVersion: *raw.JSONRPCVersion,
		Method:         method,
		Params:         raw.Params,
		ID:             id,
	}, nil
}
