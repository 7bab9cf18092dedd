package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/events"
	"github.com/ogero/movies-api/internal/repository"
	"github.com/ogero/movies-api/pkg/movie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []movie.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event movie.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func TestMoviesService_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewMoviesService(repository.New(), pub, nil)

	m, err := s.AddMovie(ctx, movie.CreateMovieRequest{Name: movie.Ptr("Inception"), Year: movie.Ptr(2010)})
	require.NoError(t, err)
	assert.Equal(t, movie.Movie{ID: 1, Name: "Inception", Year: 2010}, m)

	_, err = s.UpdateMovie(ctx, m.ID, movie.UpdateMovieRequest{Rating: movie.Ptr(8.8)})
	require.NoError(t, err)

	assert.True(t, s.DeleteMovie(ctx, m.ID))
	assert.False(t, s.DeleteMovie(ctx, m.ID))

	require.Len(t, pub.events, 3)
	assert.Equal(t, "movie-created", pub.events[0].Topic)
	assert.Equal(t, "movie-updated", pub.events[1].Topic)
	assert.Equal(t, "movie-deleted", pub.events[2].Topic)
	assert.Equal(t, "1", pub.events[0].Messages[0].Key)
	assert.JSONEq(t, `{"id":1,"name":"Inception","year":2010,"rating":8.8}`, pub.events[1].Messages[0].Value)
}

func TestMoviesService_FailedOperationsDoNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewMoviesService(repository.New(), pub, nil)

	_, err := s.AddMovie(ctx, movie.CreateMovieRequest{Name: movie.Ptr("Inception")})
	var validationErr *common.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = s.UpdateMovie(ctx, 7, movie.UpdateMovieRequest{Year: movie.Ptr(2000)})
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)

	assert.Empty(t, pub.events)
}

func TestMoviesService_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := NewMoviesService(repository.New(), pub, nil)

	m, err := s.AddMovie(context.Background(), movie.CreateMovieRequest{Name: movie.Ptr("Dune"), Year: movie.Ptr(2021)})
	require.NoError(t, err)
	assert.Equal(t, 1, m.ID)
	assert.Len(t, pub.events, 1)

	got, found := s.GetMovieByName(context.Background(), "Dune")
	assert.True(t, found)
	assert.Equal(t, m, got)
}

func TestMoviesService_NilPublisher(t *testing.T) {
	s := NewMoviesService(repository.New(), nil, nil)

	_, err := s.AddMovie(context.Background(), movie.CreateMovieRequest{Name: movie.Ptr("Dune"), Year: movie.Ptr(2021)})
	assert.NoError(t, err)
	assert.Len(t, s.GetMovies(context.Background()), 1)
}

func TestMoviesService_ApplyProviderState(t *testing.T) {
	tests := []struct {
		name     string
		seed     []string
		state    movie.ProviderState
		expected []movie.Movie
		wantErr  bool
	}{
		{
			name:     "no movies",
			seed:     []string{"Inception", "Dune"},
			state:    movie.ProviderState{State: StateNoMovies},
			expected: []movie.Movie{},
		},
		{
			name:     "movie with id from string params",
			state:    movie.ProviderState{State: StateMovieWithID, Params: map[string]any{"id": "42", "name": "Heat", "year": "1995"}},
			expected: []movie.Movie{{ID: 42, Name: "Heat", Year: 1995}},
		},
		{
			name:     "movie with id from numeric params and defaults",
			state:    movie.ProviderState{State: StateMovieWithID, Params: map[string]any{"id": float64(3)}},
			expected: []movie.Movie{{ID: 3, Name: "My movie", Year: 1999}},
		},
		{
			name:     "movie with id replaces same name",
			seed:     []string{"My movie"},
			state:    movie.ProviderState{State: StateMovieWithID, Params: map[string]any{"id": 5}},
			expected: []movie.Movie{{ID: 5, Name: "My movie", Year: 1999}},
		},
		{
			name:    "movie with id requires an id",
			state:   movie.ProviderState{State: StateMovieWithID},
			wantErr: true,
		},
		{
			name:    "movie with id rejects a bad year",
			state:   movie.ProviderState{State: StateMovieWithID, Params: map[string]any{"id": "1", "year": "soon"}},
			wantErr: true,
		},
		{
			name:  "existing movie",
			state: movie.ProviderState{State: StateExistingMovie, Params: map[string]any{"name": "Alien", "year": 1979, "rating": "8.5", "director": "Ridley Scott"}},
			expected: []movie.Movie{
				{ID: 1, Name: "Alien", Year: 1979, Rating: 8.5, Director: "Ridley Scott"},
			},
		},
		{
			name:     "movie with name already present",
			seed:     []string{"My movie"},
			state:    movie.ProviderState{State: StateMovieWithName},
			expected: []movie.Movie{{ID: 1, Name: "My movie", Year: 2000}},
		},
		{
			name:     "teardown is a no-op",
			seed:     []string{"Inception"},
			state:    movie.ProviderState{State: StateNoMovies, Action: "teardown"},
			expected: []movie.Movie{{ID: 1, Name: "Inception", Year: 2000}},
		},
		{
			name:    "unknown state",
			state:   movie.ProviderState{State: "A movie from the future"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewMoviesService(repository.New(), events.Discard, nil)
			for _, name := range tt.seed {
				_, err := s.AddMovie(ctx, movie.CreateMovieRequest{Name: movie.Ptr(name), Year: movie.Ptr(2000)})
				require.NoError(t, err)
			}

			err := s.ApplyProviderState(ctx, tt.state)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.GetMovies(ctx))
		})
	}
}

func TestMoviesService_UnknownProviderState(t *testing.T) {
	s := NewMoviesService(repository.New(), nil, nil)

	err := s.ApplyProviderState(context.Background(), movie.ProviderState{State: "nope"})
	assert.ErrorIs(t, err, ErrUnknownProviderState)
}
