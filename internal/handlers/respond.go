// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"corpsite/internal/autosave"
	"corpsite/internal/ordering"
	"corpsite/internal/publishing"
	"corpsite/internal/store"
)

// maxJSONBody caps JSON request bodies (1 MB).
const maxJSONBody = 1 << 20

// errorBody is the error envelope of every API response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// listBody wraps paginated listings.
type listBody[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T, total int) listBody[T] {
	if items == nil {
		items = []T{}
	}
	return listBody[T]{Items: items, Total: total}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fieldError is a validation failure tied to one input field.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, format string, args ...any) error {
	return &fieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// malformedError marks a body that could not be decoded.
type malformedError struct {
	cause error
}

func (e *malformedError) Error() string { return "malformed request body: " + e.cause.Error() }

func (e *malformedError) Unwrap() error { return e.cause }

var errNotFound = errors.New("not found")

// fail writes the JSON error for err. Anything unrecognised is logged under
// op and answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		fe   *fieldError
		ves  validator.ValidationErrors
		dup  *store.DuplicateError
		ref  *store.ReferenceError
		te   *publishing.TransitionError
		oe   *ordering.ValidationError
		me   *malformedError
		tooL *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: fe.Message, Field: fe.Field})
	case errors.As(err, &ves):
		v := ves[0]
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: validationMessage(v), Field: v.Field()})
	case errors.As(err, &dup):
		field := dup.Field()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: field + " is already in use", Field: field})
	case errors.As(err, &ref):
		field := ref.Field()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: field + " refers to a record that does not exist", Field: field})
	case errors.As(err, &te):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: te.Error(), Field: "status"})
	case errors.As(err, &oe):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: oe.Error(), Field: "ids"})
	case errors.As(err, &tooL):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &me):
		writeError(w, http.StatusBadRequest, "malformed JSON body")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, autosave.ErrStale):
		writeError(w, http.StatusConflict, "a newer autosave exists")
	case errors.Is(err, store.ErrInUse):
		writeError(w, http.StatusConflict, "the record is still in use")
	default:
		slog.Error(op+" failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooL *http.MaxBytesError
		if errors.As(err, &tooL) {
			return err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalid(typeErr.Field, "has the wrong type")
		}
		if errors.Is(err, io.EOF) {
			return &malformedError{cause: errors.New("empty body")}
		}
		return &malformedError{cause: err}
	}
	return validate.Struct(dst)
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound
	}
	return id, nil
}

// pageParams reads limit and offset from the query string. Stores clamp
// the values, so bad input falls back to their defaults.
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}
