// Package protocol implements the wire frame shared by the reliable
// stream and the datagram channel: `method:base64(JSON(payload))`.
package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Encode serializes payload to JSON, base64s it and prefixes the method
// name. The result is UTF-8 text suitable for both channels.
func Encode(method string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	b64 := base64.StdEncoding.EncodeToString(body)
	return []byte(method + ":" + b64), nil
}

// Decode splits a frame on the first `:` and returns the method name and
// the decoded JSON body. The body may be empty. Any malformed input
// yields ErrMalformedFrame; callers drop such frames.
func Decode(data []byte) (method string, body []byte, err error) {
	idx := bytes.IndexByte(data, ':')
	if idx < 1 {
		return "", nil, ErrMalformedFrame
	}
	method = string(data[:idx])
	b64 := data[idx+1:]
	if len(b64) == 0 {
		return method, nil, nil
	}
	body = make([]byte, base64.StdEncoding.DecodedLen(len(b64)))
	n, err := base64.StdEncoding.Decode(body, b64)
	if err != nil {
		return "", nil, ErrMalformedFrame
	}
	body = body[:n]
	if len(body) > 0 && !json.Valid(body) {
		return "", nil, ErrMalformedFrame
	}
	return method, body, nil
}

// DecodePayload parses the JSON body of a decoded frame into v.
func DecodePayload(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return ErrMalformedFrame
	}
	return nil
}
