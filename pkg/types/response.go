package types

import "encoding/json"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// RawEnvelope mirrors SuccessEnvelope for clients that decode the payload lazily.
type RawEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
