package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/pkg/movie"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// App represents the main application structure that holds the movies service and the response format settings.
type App struct {
	MoviesService MoviesService
	// Envelope wraps every response body in {status, data|message|error}
	Envelope bool
	// ProviderStates exposes the contract verification provider states endpoint
	ProviderStates bool
}

/*
NewApp creates a new instance of the App struct.

Parameters:
  - moviesService: The service holding the movie collection.
  - envelope: Whether response bodies are wrapped in a {status, data} envelope.
  - providerStates: Whether the provider states endpoint is served.

Returns:
  - A pointer to the newly created App instance.
*/
func NewApp(moviesService MoviesService, envelope, providerStates bool) (*App, error) {
	if moviesService == nil {
		return nil, errors.New("movies service is required")
	}

	return &App{
		MoviesService:  moviesService,
		Envelope:       envelope,
		ProviderStates: providerStates,
	}, nil
}

// StatusHandler reports that the server is up.
func (a *App) StatusHandler(w http.ResponseWriter, r *http.Request) {
	common.Log.DebugContext(r.Context(), "StatusHandler")

	a.writeMessage(w, r, http.StatusOK, "Server is running")
}

// ListMoviesHandler serves the whole collection.
// When the name query parameter is present it serves the single movie with that name instead, or 404.
func (a *App) ListMoviesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "ListMoviesHandler")

	if r.URL.Query().Has("name") {
		name := r.URL.Query().Get("name")
		span.SetAttributes(attribute.String("query.name", name))

		m, found := a.MoviesService.GetMovieByName(ctx, name)
		if !found {
			a.movieNotFoundResponse(w, r)
			return
		}
		a.writeData(w, r, http.StatusOK, m)
		return
	}

	a.writeData(w, r, http.StatusOK, a.MoviesService.GetMovies(ctx))
}

// GetMovieHandler serves a single movie by its id.
func (a *App) GetMovieHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "GetMovieHandler")

	id, err := readIDParam(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("param.id", id))

	m, found := a.MoviesService.GetMovieByID(ctx, id)
	if !found {
		a.movieNotFoundResponse(w, r)
		return
	}

	a.writeData(w, r, http.StatusOK, m)
}

// CreateMovieHandler validates the request body and adds the movie to the collection.
func (a *App) CreateMovieHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	common.Log.DebugContext(ctx, "CreateMovieHandler")

	var req movie.CreateMovieRequest
	if err := readJSON(w, r, &req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	m, err := a.MoviesService.AddMovie(ctx, req)
	if err != nil {
		a.movieErrorResponse(w, r, err)
		return
	}

	a.writeData(w, r, http.StatusOK, m)
}

// UpdateMovieHandler applies the fields present in the request body to an existing movie.
func (a *App) UpdateMovieHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "UpdateMovieHandler")

	id, err := readIDParam(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("param.id", id))

	var req movie.UpdateMovieRequest
	if err = readJSON(w, r, &req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	m, err := a.MoviesService.UpdateMovie(ctx, id, req)
	if err != nil {
		a.movieErrorResponse(w, r, err)
		return
	}

	a.writeData(w, r, http.StatusOK, m)
}

// DeleteMovieHandler removes a movie by its id.
func (a *App) DeleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "DeleteMovieHandler")

	id, err := readIDParam(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("param.id", id))

	if !a.MoviesService.DeleteMovie(ctx, id) {
		a.errorResponse(w, r, http.StatusNotFound, fmt.Sprintf("Movie %d not found", id))
		return
	}

	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("Movie %d has been deleted", id))
}

// ProviderStatesHandler sets up the collection for a contract verification interaction.
func (a *App) ProviderStatesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "ProviderStatesHandler")

	var state movie.ProviderState
	if err := readJSON(w, r, &state); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("provider.state", state.State))

	if err := a.MoviesService.ApplyProviderState(ctx, state); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	a.writeData(w, r, http.StatusOK, envelope{"state": state.State})
}

// WebsocketHandler handles WebSocket connections
func (a *App) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	common.Log.DebugContext(ctx, "WebsocketHandler")

	a.MoviesService.ServeHTTP(w, r)
}
