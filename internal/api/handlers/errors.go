package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/melody-api/internal/export"
	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field
const (
	codeUnknownSymbol       = "unknown_symbol"
	codeInvalidParameter    = "invalid_parameter"
	codeMalformedPitch      = "malformed_pitch"
	codeUnsupportedFormat   = "unsupported_format"
	codeOracleFailure       = "oracle_failure"
	codeUndecodable         = "undecodable_melody"
	codeNotFound            = "not_found"
	codePersistenceDisabled = "persistence_disabled"
	codeTimeout             = "timeout"
	codeInvalidRequest      = "invalid_request"
	codeInternal            = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps an error to its HTTP status, error code and offending field
func classify(err error) (int, string, string) {
	var unknown *melody.UnknownSymbolError
	var invalid *melody.InvalidParameterError
	var malformed *melody.MalformedPitchError
	var oracleErr *melody.OracleError

	switch {
	case errors.As(err, &unknown):
		return http.StatusBadRequest, codeUnknownSymbol, "seed"
	case errors.As(err, &invalid):
		return http.StatusBadRequest, codeInvalidParameter, invalid.Name
	case errors.Is(err, services.ErrUndecodable):
		return http.StatusBadGateway, codeUndecodable, ""
	case errors.As(err, &malformed):
		return http.StatusBadRequest, codeMalformedPitch, "melody"
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, codeUnsupportedFormat, "format"
	case errors.As(err, &oracleErr):
		return http.StatusBadGateway, codeOracleFailure, ""
	case errors.Is(err, services.ErrCompositionNotFound):
		return http.StatusNotFound, codeNotFound, ""
	case errors.Is(err, services.ErrPersistenceDisabled):
		return http.StatusServiceUnavailable, codePersistenceDisabled, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout, ""
	default:
		return http.StatusInternalServerError, codeInternal, ""
	}
}

// respondError writes err as JSON with the mapped status. Server errors
// hide their message from the client.
func respondError(c *gin.Context, err error) {
	status, code, field := classify(err)
	fields := logger.WithContext(c)
	fields["code"] = code

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, fields)
		if status == http.StatusInternalServerError {
			message = "Internal server error"
		}
	} else {
		fields["error"] = err.Error()
		logger.Warn("Request rejected", fields)
	}

	c.JSON(status, errorResponse{
		Error:     message,
		Code:      code,
		Field:     field,
		RequestID: c.GetString("request_id"),
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:     err.Error(),
		Code:      codeInvalidRequest,
		RequestID: c.GetString("request_id"),
	})
}
