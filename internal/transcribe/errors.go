package transcribe

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a transcription failure for clients.
type Code string

const (
	CodeMissingAudio        Code = "missing_audio"
	CodeUnsupportedFormat   Code = "unsupported_format"
	CodePayloadTooLarge     Code = "payload_too_large"
	CodeRateLimited         Code = "rate_limited"
	CodeQuotaExhausted      Code = "quota_exhausted"
	CodeMisconfigured       Code = "service_misconfigured"
	CodeTranscriptionFailed Code = "transcription_failed"
)

// Error is a client-visible transcription failure. Message is safe to show
// to end users; Detail carries provider diagnostics for logs.
type Error struct {
	Code    Code
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to the gateway's response status:
// validation failures 400, rate limiting 429, quota exhaustion 503,
// misconfiguration and unclassified failures 500.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeMissingAudio, CodeUnsupportedFormat, CodePayloadTooLarge:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeQuotaExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsError unwraps err into a *Error, wrapping anything else as an
// unclassified transcription failure.
func AsError(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Code: CodeTranscriptionFailed, Message: "Transcription failed", Detail: err.Error()}
}

func errMissingAudio() *Error {
	return &Error{Code: CodeMissingAudio, Message: "No audio file provided"}
}

func errUnsupportedFormat(contentType, fileName string) *Error {
	return &Error{
		Code:    CodeUnsupportedFormat,
		Message: "Unsupported audio format. Use webm, wav, mp3, mpeg, mp4, m4a, or ogg",
		Detail:  fmt.Sprintf("content type %q, file %q", contentType, fileName),
	}
}

func errPayloadTooLarge(size int64) *Error {
	return &Error{
		Code:    CodePayloadTooLarge,
		Message: "Audio file exceeds the 25 MB limit",
		Detail:  fmt.Sprintf("%d bytes", size),
	}
}

func errRateLimited(detail string) *Error {
	return &Error{
		Code:    CodeRateLimited,
		Message: "Transcription service is busy, please retry in a moment",
		Detail:  detail,
	}
}

func errQuotaExhausted(detail string) *Error {
	return &Error{
		Code:    CodeQuotaExhausted,
		Message: "Transcription service quota exhausted",
		Detail:  detail,
	}
}

func errMisconfigured(detail string) *Error {
	return &Error{
		Code:    CodeMisconfigured,
		Message: "Transcription service is not configured",
		Detail:  detail,
	}
}

func errTranscriptionFailed(detail string) *Error {
	return &Error{
		Code:    CodeTranscriptionFailed,
		Message: "Transcription failed",
		Detail:  detail,
	}
}
