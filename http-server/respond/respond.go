// Package respond holds the JSON envelope and error mapping shared by all
// handlers.
package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"smartmes/internal/apperr"
)

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, Response{Status: StatusOK, Data: data})
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{Status: StatusOK, Data: data})
}

func Fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Response{Status: StatusError, Error: msg})
}

// Error maps err to a status code. Only unexpected failures are logged at
// error level; their text is not sent to the client.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", slog.String("error", err.Error()))
		Fail(w, r, code, "internal error")
		return
	}

	log.Warn("request rejected", slog.String("error", err.Error()), slog.Int("code", code))
	Fail(w, r, code, err.Error())
}

func StatusCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicateKey, apperr.KindConflict, apperr.KindInvalidTransition, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Logger scopes log to one handler invocation.
func Logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Decode reads a JSON body into v and runs its validate tags.
func Decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return apperr.InvalidArgument("decode", "invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		return apperr.InvalidArgument("validate", validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("field %s must be greater than %s", fe.Field(), fe.Param()))
		case "gte", "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}

// QueryInt returns def when the parameter is absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("query", fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// QueryTime accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func QueryTime(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return nil, apperr.InvalidArgument("query", fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 time", name))
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
