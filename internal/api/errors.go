// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
)

// Error represents a structured error response
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeTimeout        = "device_timeout"
	ErrCodeNoResponse     = "device_no_response"
	ErrCodeDevice         = "device_error"
	ErrCodeNotConverged   = "device_not_converged"
	ErrCodeLink           = "link_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // connection may already be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeProjectorError maps controller and codec errors to HTTP statuses
func writeProjectorError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, escvp.ErrUnencodable):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, projector.ErrTimeout):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	case errors.Is(err, projector.ErrNoResponse):
		return http.StatusBadGateway, ErrCodeNoResponse
	case errors.Is(err, projector.ErrNotConverged):
		return http.StatusBadGateway, ErrCodeNotConverged
	case errors.Is(err, projector.ErrUnexpectedResponse),
		errors.Is(err, escvp.ErrMalformedCode),
		errors.Is(err, escvp.ErrUnknownCode):
		return http.StatusBadGateway, ErrCodeDevice
	case errors.Is(err, projector.ErrLink):
		return http.StatusServiceUnavailable, ErrCodeLink
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
