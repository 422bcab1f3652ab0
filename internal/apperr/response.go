// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeAlreadyAuthenticated = "ALREADY_AUTHENTICATED"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeDuplicateResource    = "DUPLICATE_RESOURCE"
	CodeNotFound             = "NOT_FOUND"
	CodeMetadataFetchFailed  = "METADATA_FETCH_FAILED"
	CodeConfiguration        = "CONFIGURATION_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Code returns the stable wire code for err. Not-found codes carry the
// resource, e.g. SUBMISSION_NOT_FOUND.
func Code(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return CodeInternal
	}
	switch e.Kind {
	case KindUnauthenticated:
		return CodeUnauthenticated
	case KindAlreadyAuthenticated:
		return CodeAlreadyAuthenticated
	case KindValidation:
		return CodeValidationFailed
	case KindDuplicateResource:
		return CodeDuplicateResource
	case KindNotFound:
		if e.Resource != "" {
			return strings.ToUpper(e.Resource) + "_" + CodeNotFound
		}
		return CodeNotFound
	case KindMetadataFetch:
		return CodeMetadataFetchFailed
	case KindConfiguration:
		return CodeConfiguration
	default:
		return CodeInternal
	}
}

// Status maps an error kind to an HTTP status
func Status(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAlreadyAuthenticated:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicateResource:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindMetadataFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Handle writes err as an ErrorResponse
func Handle(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	status := Status(err)
	resp := ErrorResponse{Code: Code(err), Message: err.Error()}

	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		resp.Details = e.Detail
	}
	if status == http.StatusInternalServerError {
		resp.Message = "An unexpected error occurred"
		resp.Details = nil
	}

	return c.Status(status).JSON(resp)
}

// HandleValidationError handles request parsing failures with 400 Bad Request
func HandleValidationError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeValidationFailed,
		Message: message,
		Details: message,
	})
}
