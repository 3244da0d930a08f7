package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is a successful response. Data holds the payload with the
// server's `{"data": ...}` wrapper removed, Body holds the response exactly
// as it was received.
type Envelope struct {
	Status  int
	TraceId string
	Body    json.RawMessage
	Data    json.RawMessage
	Text    string
	IsJSON  bool
}

var ErrNotJSON = errors.New("response is not JSON")

// Decode decodes the unwrapped payload into `out`. A non-JSON response can
// only be decoded into a *string.
func (e Envelope) Decode(out any) error {
	return e.decode(e.Data, out)
}

// DecodeBody decodes the whole response body, including the status and data
// fields the server wraps payloads with.
func (e Envelope) DecodeBody(out any) error {
	return e.decode(e.Body, out)
}

func (e Envelope) decode(raw json.RawMessage, out any) error {
	if !e.IsJSON {
		text, ok := out.(*string)
		if !ok {
			return ErrNotJSON
		}
		*text = e.Text
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	err := json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseFields are the top level fields the transport looks at, values are
// kept raw since servers are not consistent about their types.
type responseFields map[string]json.RawMessage

func parseFields(body []byte) (responseFields, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields responseFields
	err := json.Unmarshal(trimmed, &fields)
	if err != nil {
		return nil, false
	}
	return fields, true
}

// text returns the field as a string: JSON strings are unquoted, falsy
// values are empty and anything else is returned as raw JSON.
func (f responseFields) text(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", "0", "{}", "[]":
		return ""
	}
	return string(raw)
}
