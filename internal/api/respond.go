package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/cart"
	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/breaker"
	"github.com/crimson-sun/emoshop/internal/catalog/loader"
	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/shop"
	"github.com/crimson-sun/emoshop/internal/validation"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// fail maps domain errors onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *validation.Error
		pageErr *loader.PageError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "VALIDATION_ERROR", Message: verr.Error(), Fields: verr.Fields})
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
	case errors.Is(err, shop.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, cart.ErrEmpty):
		writeError(w, http.StatusConflict, "CART_EMPTY", "your cart is empty")
	case errors.Is(err, shop.ErrStaleLoad):
		writeError(w, http.StatusConflict, "STALE_LOAD", err.Error())
	case errors.Is(err, catalog.ErrNotConfigured):
		writeError(w, http.StatusConflict, "NOT_CONFIGURED", err.Error())
	case errors.Is(err, detector.ErrNoFace):
		writeError(w, http.StatusUnprocessableEntity, "NO_FACE", "no face detected")
	case errors.Is(err, shop.ErrNoDetector), errors.Is(err, shop.ErrNoCamera):
		writeError(w, http.StatusServiceUnavailable, "DETECTION_UNAVAILABLE", err.Error())
	case errors.Is(err, breaker.ErrOpen):
		writeError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", err.Error())
	case errors.As(err, &pageErr):
		h.log.Warn("catalog load failed", "page", pageErr.Page, "attempts", pageErr.Attempts, "error", pageErr.Err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "request cancelled or timed out")
	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// decode reads a JSON body into dest. An empty body leaves dest untouched
// and returns io.EOF.
func decode(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &validation.Error{Fields: []validation.FieldError{{Field: "body", Tag: "json", Message: "malformed JSON body: " + err.Error()}}}
	}
	return nil
}
