package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrTransport        = errors.New("transport error")               // Connection refused, DNS failure, TLS failure
	ErrTimeout          = errors.New("request timed out")             // Per-request deadline exceeded
	ErrHTTPStatus       = errors.New("non-success HTTP status")       // Wraps the status code/text
	ErrContentType      = errors.New("non-HTML content type")         // Response was not text/HTML-like
	ErrParsing          = errors.New("parsing error")                 // Wraps HTML/URL parse errors
	ErrMalformedURL     = errors.New("malformed URL")                 // Unparseable URL during normalization
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrBodyRead         = errors.New("failed to read response body")
	ErrStorage          = errors.New("storage error") // Wraps badger errors
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging.
// Per-page and per-resource errors never abort a crawl; the category only
// feeds structured log fields.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return "Network_Timeout"
	case errors.Is(err, ErrTransport):
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "connection refused") {
			return "Network_ConnectionRefused"
		}
		if strings.Contains(errMsg, "no such host") {
			return "Network_DNSLookup"
		}
		if strings.Contains(errMsg, "tls") || strings.Contains(errMsg, "certificate") {
			return "Network_TLS"
		}
		return "Network_Other"
	case errors.Is(err, ErrHTTPStatus):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_NonSuccess"
	case errors.Is(err, ErrContentType):
		return "Content_TypeMismatch"
	case errors.Is(err, ErrParsing):
		if strings.Contains(err.Error(), "URL") {
			return "Content_ParsingURL"
		}
		return "Content_ParsingHTML"
	case errors.Is(err, ErrMalformedURL):
		return "Content_MalformedURL"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrStorage):
		return "Storage_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// Fallback checks for underlying error types not wrapped by sentinels
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline exceeded") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerMsg, "no such host") {
		return "Network_DNSLookup"
	}

	return "Unknown"
}
