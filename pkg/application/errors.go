package application

import (
	"errors"

	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

// errEmptyResponse is reported when a call that must return an entity
// came back with an empty body.
var errEmptyResponse = errors.New("empty response from server")

// ErrorMessage turns err into the text a store records in its Error field.
// Server messages win; a bare status falls back to fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
