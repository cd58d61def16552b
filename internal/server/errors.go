// Package server provides the local HTTP API that hosts verification
// sessions for browser and script clients.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
)

// ErrSessionNotFound indicates no verification session exists for a resume id
type ErrSessionNotFound struct {
	ResumeID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("no verification session for resume %s", e.ResumeID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSessionNotFound
		validation *ErrValidation
		be         *backend.Error
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &be):
		return backendStatus(be)
	default:
		return http.StatusInternalServerError
	}
}

// backendStatus maps a failed backend call onto the status this server
// reports for it.
func backendStatus(be *backend.Error) int {
	switch be.Kind {
	case backend.KindNotFound:
		return http.StatusNotFound
	case backend.KindInvalidInput:
		return http.StatusBadRequest
	case backend.KindNoResponse:
		return http.StatusGatewayTimeout
	case backend.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// errorMessage returns the text shown to API clients for err.
func errorMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return err.Error()
}
