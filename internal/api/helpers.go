// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/davamoreno/rekomendasi/internal/logging"
)

// APIError is the machine-readable error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse wraps an APIError for JSON encoding.
type errorResponse struct {
	Error *APIError `json:"error"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError logs err (if any) and writes a structured error body.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("api error")
	}
	respondJSON(w, status, &errorResponse{Error: &APIError{Code: code, Message: message}})
}

// validate is shared across requests; validator.Validate is safe for
// concurrent use.
var validate = validator.New()

// validateRequest validates a request struct and converts the first
// failure into an APIError.
func validateRequest(req interface{}) *APIError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Field() == "ProductID" {
			return &APIError{Code: "MISSING_PRODUCT_ID", Message: "Provide a product_id"}
		}
		return &APIError{Code: "VALIDATION_ERROR", Message: "Invalid value for " + fe.Field()}
	}
	return &APIError{Code: "VALIDATION_ERROR", Message: "Invalid request"}
}
