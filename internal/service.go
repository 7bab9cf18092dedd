package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/events"
	"github.com/ogero/movies-api/internal/repository"
	"github.com/ogero/movies-api/pkg/movie"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Provider states understood by MoviesService.ApplyProviderState
const (
	StateNoMovies           = "No movies exist"
	StateMovieWithID        = "Has a movie with a specific ID"
	StateExistingMovie      = "An existing movie exists"
	StateMovieWithName      = "Has a movie with a specific name"
	providerStateTeardown   = "teardown"
	defaultStateMovieName   = "My movie"
	defaultStateMovieYear   = 1999
	defaultStateMovieRating = 0
)

// ErrUnknownProviderState is returned for provider states MoviesService can't set up.
var ErrUnknownProviderState = errors.New("unknown provider state")

// MoviesService defines the operations on the movie collection exposed by the API.
type MoviesService interface {
	// Handler serves the websocket feed of movie events
	http.Handler
	// GetMovies returns every movie in insertion order.
	GetMovies(ctx context.Context) []movie.Movie
	// GetMovieByID returns the movie with the given ID, or false when absent.
	GetMovieByID(ctx context.Context, id int) (movie.Movie, bool)
	// GetMovieByName returns the movie with the given name, or false when absent.
	GetMovieByName(ctx context.Context, name string) (movie.Movie, bool)
	// AddMovie validates and inserts a movie, then publishes a movie-created event.
	AddMovie(ctx context.Context, req movie.CreateMovieRequest) (movie.Movie, error)
	// UpdateMovie replaces the provided fields of a movie, then publishes a movie-updated event.
	UpdateMovie(ctx context.Context, id int, req movie.UpdateMovieRequest) (movie.Movie, error)
	// DeleteMovie removes a movie, then publishes a movie-deleted event. It reports whether a movie was removed.
	DeleteMovie(ctx context.Context, id int) bool
	// ApplyProviderState sets the collection up as required by a contract verification interaction.
	ApplyProviderState(ctx context.Context, state movie.ProviderState) error
}

type moviesService struct {
	repository *repository.Repository
	publisher  events.Publisher
	feed       http.Handler
}

// NewMoviesService creates a MoviesService over repo. Events go to publisher and feed serves the websocket endpoint.
// A nil feed answers websocket requests with 404.
func NewMoviesService(repo *repository.Repository, publisher events.Publisher, feed http.Handler) MoviesService {
	if publisher == nil {
		publisher = events.Discard
	}
	if feed == nil {
		feed = http.NotFoundHandler()
	}

	return &moviesService{
		repository: repo,
		publisher:  publisher,
		feed:       feed,
	}
}

// GetMovies returns every movie in insertion order.
func (s *moviesService) GetMovies(ctx context.Context) []movie.Movie {
	ctx, span := s.startSpan(ctx, "GetMovies")
	defer span.End()

	movies := s.repository.List()
	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	countOperation(ctx, "list", "ok")

	return movies
}

// GetMovieByID returns the movie with the given ID, or false when absent.
func (s *moviesService) GetMovieByID(ctx context.Context, id int) (movie.Movie, bool) {
	ctx, span := s.startSpan(ctx, "GetMovieByID")
	defer span.End()
	span.SetAttributes(attribute.Int("movie.id", id))

	m, found := s.repository.FindByID(id)
	countOperation(ctx, "find_by_id", foundResult(found))

	return m, found
}

// GetMovieByName returns the movie with the given name, or false when absent.
func (s *moviesService) GetMovieByName(ctx context.Context, name string) (movie.Movie, bool) {
	ctx, span := s.startSpan(ctx, "GetMovieByName")
	defer span.End()
	span.SetAttributes(attribute.String("movie.name", name))

	m, found := s.repository.FindByName(name)
	countOperation(ctx, "find_by_name", foundResult(found))

	return m, found
}

// AddMovie validates and inserts a movie, then publishes a movie-created event.
func (s *moviesService) AddMovie(ctx context.Context, req movie.CreateMovieRequest) (movie.Movie, error) {
	ctx, span := s.startSpan(ctx, "AddMovie")
	defer span.End()

	m, err := s.repository.Insert(req)
	countOperation(ctx, "insert", errorResult(err))
	if err != nil {
		span.RecordError(err)
		return movie.Movie{}, err
	}
	span.SetAttributes(attribute.Int("movie.id", m.ID))
	common.Log.InfoContext(ctx, "Movie created", common.MovieAttr(m))

	s.publish(ctx, movie.ActionCreated, m)

	return m, nil
}

// UpdateMovie replaces the provided fields of a movie, then publishes a movie-updated event.
func (s *moviesService) UpdateMovie(ctx context.Context, id int, req movie.UpdateMovieRequest) (movie.Movie, error) {
	ctx, span := s.startSpan(ctx, "UpdateMovie")
	defer span.End()
	span.SetAttributes(attribute.Int("movie.id", id))

	m, err := s.repository.Update(id, req)
	countOperation(ctx, "update", errorResult(err))
	if err != nil {
		span.RecordError(err)
		return movie.Movie{}, err
	}
	common.Log.InfoContext(ctx, "Movie updated", common.MovieAttr(m))

	s.publish(ctx, movie.ActionUpdated, m)

	return m, nil
}

// DeleteMovie removes a movie, then publishes a movie-deleted event.
func (s *moviesService) DeleteMovie(ctx context.Context, id int) bool {
	ctx, span := s.startSpan(ctx, "DeleteMovie")
	defer span.End()
	span.SetAttributes(attribute.Int("movie.id", id))

	m, found := s.repository.FindByID(id)
	deleted := found && s.repository.DeleteByID(id)
	countOperation(ctx, "delete", foundResult(deleted))
	if !deleted {
		return false
	}
	common.Log.InfoContext(ctx, "Movie deleted", common.MovieAttr(m))

	s.publish(ctx, movie.ActionDeleted, m)

	return true
}

// ApplyProviderState sets the collection up as required by a contract verification interaction.
// Params may come as strings, as contract tools stringify them, or as JSON numbers.
func (s *moviesService) ApplyProviderState(ctx context.Context, state movie.ProviderState) error {
	ctx, span := s.startSpan(ctx, "ApplyProviderState")
	defer span.End()
	span.SetAttributes(attribute.String("provider.state", state.State), attribute.String("provider.action", state.Action))

	if state.Action == providerStateTeardown {
		return nil
	}

	var err error
	switch state.State {
	case StateNoMovies:
		s.repository.Reset()

	case StateMovieWithID:
		var m movie.Movie
		if m.ID, err = intParam(state.Params, "id", 0); err != nil {
			break
		}
		if m.Year, err = intParam(state.Params, "year", defaultStateMovieYear); err != nil {
			break
		}
		if m.Rating, err = floatParam(state.Params, "rating", defaultStateMovieRating); err != nil {
			break
		}
		m.Name = stringParam(state.Params, "name", defaultStateMovieName)
		m.Director = stringParam(state.Params, "director", "")
		_, err = s.repository.Restore(m)

	case StateExistingMovie, StateMovieWithName:
		name := stringParam(state.Params, "name", defaultStateMovieName)
		if _, found := s.repository.FindByName(name); found {
			break
		}
		req := movie.CreateMovieRequest{Name: &name}
		var year int
		if year, err = intParam(state.Params, "year", defaultStateMovieYear); err != nil {
			break
		}
		req.Year = &year
		if _, ok := state.Params["rating"]; ok {
			var rating float64
			if rating, err = floatParam(state.Params, "rating", 0); err != nil {
				break
			}
			req.Rating = &rating
		}
		if director := stringParam(state.Params, "director", ""); director != "" {
			req.Director = &director
		}
		_, err = s.repository.Insert(req)

	default:
		err = fmt.Errorf("%w: %q", ErrUnknownProviderState, state.State)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	common.Log.DebugContext(ctx, "Provider state applied", "state", state.State)

	return nil
}

// ServeHTTP handles incoming HTTP requests via the websocket feed handler
func (s *moviesService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.feed.ServeHTTP(w, r)
}

// publish reports a change to the publisher. Failures are logged only: events are a side channel and never fail the request.
func (s *moviesService) publish(ctx context.Context, action movie.Action, m movie.Movie) {
	span := trace.SpanFromContext(ctx)

	event, err := movie.NewEvent(action, m)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to events.Publisher.Publish", "topic", action.Topic(), "err", err)
		span.RecordError(err)
	}
}

func (s *moviesService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.MoviesService."+name)
}

func countOperation(ctx context.Context, operation, result string) {
	common.MovieOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

func foundResult(found bool) string {
	if found {
		return "ok"
	}
	return "not_found"
}

func errorResult(err error) string {
	var validationErr *common.ValidationError
	var conflictErr *repository.ConflictError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.Is(err, repository.ErrMovieNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func stringParam(params map[string]any, key, fallback string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, common.NewValidationError(key, "must be an integer")
		}
		return int(n), nil
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, common.NewValidationError(key, "must be an integer")
		}
		return i, nil
	default:
		return 0, common.NewValidationError(key, "must be an integer")
	}
}

func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, common.NewValidationError(key, "must be a number")
		}
		return f, nil
	default:
		return 0, common.NewValidationError(key, "must be a number")
	}
}
