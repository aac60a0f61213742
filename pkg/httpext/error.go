package httpext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorResponse represents a standardised JSON error response.
// Detail covers frameworks that report errors as {"detail": ...}.
type ErrorResponse struct {
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
	ErrorURI         string          `json:"error_uri,omitempty"`
	Detail           json.RawMessage `json:"detail,omitempty"`
}

// DescribeError renders a non-2xx response body for logs. Bodies that are not a
// recognised error document are returned trimmed and truncated.
func DescribeError(status int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "" && errResp.ErrorDescription != "":
			return fmt.Sprintf("status %d: %s: %s", status, errResp.Error, errResp.ErrorDescription)
		case errResp.Error != "":
			return fmt.Sprintf("status %d: %s", status, errResp.Error)
		case len(errResp.Detail) > 0:
			var detail string
			if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
				return fmt.Sprintf("status %d: %s", status, detail)
			}
			return fmt.Sprintf("status %d: %s", status, string(errResp.Detail))
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		return fmt.Sprintf("status %d", status)
	}
	return fmt.Sprintf("status %d: %s", status, text)
}
