package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse is the JSON body returned by the API on failure.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse converts err into the API error body.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
			Details: reportableDetails(err),
		},
	}
}

func reportableDetails(err error) map[string]any {
	var out map[string]any
	for _, d := range errors.GetAllSafeDetails(err) {
		for _, s := range d.SafeDetails {
			raw, ok := strings.CutPrefix(s, "__json__:")
			if !ok {
				continue
			}
			var m map[string]any
			if json.Unmarshal([]byte(raw), &m) != nil {
				continue
			}
			if out == nil {
				out = make(map[string]any)
			}
			for k, v := range m {
				out[k] = v
			}
		}
	}
	return out
}
