// Package rest holds the pieces shared by every vSphere Automation REST call:
// endpoint URLs and the {"value": ...} response envelope.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BasePath is the path prefix of the Automation REST API.
const BasePath = "/rest"

// URL returns the absolute URL of endpoint on hostname, e.g.
// URL("vc01", "com/vmware/cis/session") is https://vc01/rest/com/vmware/cis/session.
// hostname may carry a port. A leading slash on endpoint is ignored.
func URL(hostname, endpoint string) string {
	return fmt.Sprintf("https://%s%s/%s", hostname, BasePath, strings.TrimPrefix(endpoint, "/"))
}

// Response is the envelope wrapping every successful REST payload.
type Response[T any] struct {
	Value T `json:"value"`
}

// Decode parses body as a Response[T] and returns its value.
// A body without a "value" member, or with a null one, is an error.
func Decode[T any](body []byte) (T, error) {
	var envelope Response[json.RawMessage]
	var value T

	if err := json.Unmarshal(body, &envelope); err != nil {
		return value, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Value) == 0 || string(envelope.Value) == "null" {
		return value, errors.New("decode response: missing value")
	}
	if err := json.Unmarshal(envelope.Value, &value); err != nil {
		return value, fmt.Errorf("decode response value: %w", err)
	}
	return value, nil
}
