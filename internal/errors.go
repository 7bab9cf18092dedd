package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/repository"
	"go.opentelemetry.io/otel/trace"
)

// writeData writes a successful response, wrapped in {status, data} on envelope deployments.
func (a *App) writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	var body any = data
	if a.Envelope {
		body = envelope{"status": status, "data": data}
	}
	a.write(w, r, status, body)
}

// writeMessage writes a {message} response, with the status alongside on envelope deployments.
func (a *App) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := envelope{"message": message}
	if a.Envelope {
		body["status"] = status
	}
	a.write(w, r, status, body)
}

func (a *App) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := envelope{"error": message}
	if a.Envelope {
		body["status"] = status
	}
	a.write(w, r, status, body)
}

func (a *App) write(w http.ResponseWriter, r *http.Request, status int, body any) {
	err := writeJSON(w, status, body, nil)
	if err != nil {
		common.Log.ErrorContext(r.Context(), "Failed to write response", "err", err)
		trace.SpanFromContext(r.Context()).RecordError(err)
	}
}

func (a *App) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	common.Log.ErrorContext(r.Context(), "Unexpected error", "method", r.Method, "uri", r.URL.RequestURI(), "err", err)
	trace.SpanFromContext(r.Context()).RecordError(err)

	message := "the server encountered a problem and could not process your request"
	a.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (a *App) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	a.errorResponse(w, r, http.StatusNotFound, message)
}

func (a *App) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	a.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (a *App) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	common.Log.WarnContext(r.Context(), "Bad request", "err", err)
	trace.SpanFromContext(r.Context()).RecordError(err)

	a.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (a *App) movieNotFoundResponse(w http.ResponseWriter, r *http.Request) {
	a.errorResponse(w, r, http.StatusNotFound, "Movie not found")
}

func (a *App) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	a.errorResponse(w, r, http.StatusTooManyRequests, message)
}

// movieErrorResponse maps repository errors to their HTTP status: 400 validation, 409 conflict, 404 not found.
func (a *App) movieErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *common.ValidationError
	var conflictErr *repository.ConflictError

	switch {
	case errors.As(err, &validationErr):
		a.badRequestResponse(w, r, err)
	case errors.As(err, &conflictErr):
		common.Log.WarnContext(r.Context(), "Conflict", "err", err)
		a.errorResponse(w, r, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, repository.ErrMovieNotFound):
		a.movieNotFoundResponse(w, r)
	default:
		a.serverErrorResponse(w, r, err)
	}
}
