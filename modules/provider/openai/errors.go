package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/flemzord/autoreply/internal/provider"
)

// maxErrorBody caps how much of a rejected response is kept in StatusError.
const maxErrorBody = 512

// mapHTTPError turns a non-200 status into a *provider.StatusError.
// Returns nil for 200.
func mapHTTPError(statusCode int, body []byte) error {
	if statusCode == 200 {
		return nil
	}

	// Prefer the API's own message when the body carries one.
	msg := string(body)
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return fmt.Errorf("openai: %w", &provider.StatusError{Code: statusCode, Body: msg})
}

// mapConnectionError wraps a failure of http.Client.Do as a transport error.
// Timeouts additionally match context.DeadlineExceeded.
func mapConnectionError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("openai: %w: %w: %v", provider.ErrTransport, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("openai: %w: %v", provider.ErrTransport, err)
}
