package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"comproposito/pkg/types"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// resultResponse wraps results whose side effects can partially fail.
type resultResponse struct {
	Result   any      `json:"result"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeResult(w http.ResponseWriter, status int, result any, warnings []string) {
	s.writeJSON(w, status, resultResponse{Result: result, Warnings: warnings})
}

func errorStatus(err error) int {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrContributorNotFound),
		errors.Is(err, types.ErrInitiativeNotFound),
		errors.Is(err, types.ErrPartNotFound),
		errors.Is(err, types.ErrProjectNotFound),
		errors.Is(err, types.ErrRequestNotFound),
		errors.Is(err, types.ErrDonationNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrPartNotOwned):
		return http.StatusForbidden
	case errors.Is(err, types.ErrContributorExists):
		return http.StatusConflict
	case errors.Is(err, types.ErrPaymentsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrDeliveryFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps domain errors onto status codes. Persistence failures keep
// their message so organizers can report them.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)

	resp := errorResponse{Error: err.Error()}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	}

	entry := s.logger.WithError(err).WithField("path", r.URL.Path).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	s.writeJSON(w, status, resp)
}

// decodeBody reads a JSON body, or a form body when the request was posted
// as a form.
func decodeBody(r *http.Request, dst any) error {
	contentType := r.Header.Get("Content-Type")
	isMultipart := strings.HasPrefix(contentType, "multipart/form-data")
	if isMultipart || strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		var err error
		if isMultipart {
			// also fills PostForm with the non-file parts
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return types.NewValidationError("body", "invalid form payload")
		}
		if err := decoder.Decode(dst, r.PostForm); err != nil {
			return types.NewValidationError("body", fmt.Sprintf("invalid form payload: %s", err))
		}
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return types.NewValidationError("body", fmt.Sprintf("invalid JSON payload: %s", err))
	}
	return nil
}

func decodeQuery(r *http.Request, dst any) error {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return types.NewValidationError("query", fmt.Sprintf("invalid query: %s", err))
	}
	return nil
}
