package repository

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/pkg/movie"
)

// ErrMovieNotFound is returned by mutations addressing a movie ID that isn't present.
var ErrMovieNotFound = errors.New("movie not found")

// ErrNothingToUpdate is returned when an update request carries no field.
var ErrNothingToUpdate = common.NewValidationError("value", "must contain at least one of [name, year, rating, director]")

// ConflictError reports a movie name already held by another record.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Movie %s already exists", e.Name)
}

// Repository is an in-memory, ordered collection of movies.
// IDs are assigned on insert as the last ID plus one, and names are unique.
// It is safe for concurrent use.
type Repository struct {
	mu     sync.RWMutex
	movies []movie.Movie
}

// New creates an empty Repository.
func New() *Repository {
	return &Repository{}
}

// List returns every movie in insertion order.
func (r *Repository) List() []movie.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movies := make([]movie.Movie, len(r.movies))
	copy(movies, r.movies)
	return movies
}

// FindByID returns the movie with the given ID, if any.
func (r *Repository) FindByID(id int) (movie.Movie, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexByID(id)
	if i == -1 {
		return movie.Movie{}, false
	}
	return r.movies[i], true
}

// FindByName returns the movie whose name matches exactly, if any.
func (r *Repository) FindByName(name string) (movie.Movie, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexByName(name)
	if i == -1 {
		return movie.Movie{}, false
	}
	return r.movies[i], true
}

// Insert validates req and appends a new movie with the next ID.
// It returns a *common.ValidationError for invalid input and a *ConflictError when the name is taken.
func (r *Repository) Insert(req movie.CreateMovieRequest) (movie.Movie, error) {
	if err := validateCreate(req); err != nil {
		return movie.Movie{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexByName(*req.Name) != -1 {
		return movie.Movie{}, &ConflictError{Name: *req.Name}
	}

	m := movie.Movie{
		ID:   r.nextID(),
		Name: *req.Name,
		Year: *req.Year,
	}
	if req.Rating != nil {
		m.Rating = *req.Rating
	}
	if req.Director != nil {
		m.Director = *req.Director
	}

	r.movies = append(r.movies, m)
	return m, nil
}

// Update replaces the fields present in req on the movie with the given ID.
// Renaming a movie to a name held by another one is a *ConflictError.
func (r *Repository) Update(id int, req movie.UpdateMovieRequest) (movie.Movie, error) {
	if err := validateUpdate(req); err != nil {
		return movie.Movie{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(id)
	if i == -1 {
		return movie.Movie{}, ErrMovieNotFound
	}

	m := r.movies[i]
	if req.Name != nil {
		if j := r.indexByName(*req.Name); j != -1 && j != i {
			return movie.Movie{}, &ConflictError{Name: *req.Name}
		}
		m.Name = *req.Name
	}
	if req.Year != nil {
		m.Year = *req.Year
	}
	if req.Rating != nil {
		m.Rating = *req.Rating
	}
	if req.Director != nil {
		m.Director = *req.Director
	}

	r.movies[i] = m
	return m, nil
}

// DeleteByID removes the movie with the given ID and reports whether one was removed.
// The relative order of the remaining movies is preserved.
func (r *Repository) DeleteByID(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(id)
	if i == -1 {
		return false
	}

	r.movies = append(r.movies[:i], r.movies[i+1:]...)
	return true
}

// Reset removes every movie.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.movies = nil
}

// Restore places m with its own ID at its id ordered position, so the last movie keeps the highest ID.
// Any movie holding the same ID or name is dropped first.
func (r *Repository) Restore(m movie.Movie) (movie.Movie, error) {
	if m.ID < 1 {
		return movie.Movie{}, common.NewValidationError("id", "must be greater than or equal to 1")
	}
	req := movie.CreateMovieRequest{Name: &m.Name, Year: &m.Year}
	if m.Rating != 0 {
		req.Rating = &m.Rating
	}
	if err := validateCreate(req); err != nil {
		return movie.Movie{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.movies[:0]
	for _, existing := range r.movies {
		if existing.ID != m.ID && existing.Name != m.Name {
			kept = append(kept, existing)
		}
	}
	at := sort.Search(len(kept), func(i int) bool { return kept[i].ID > m.ID })
	r.movies = slices.Insert(kept, at, m)

	return m, nil
}

func (r *Repository) nextID() int {
	if len(r.movies) == 0 {
		return 1
	}
	return r.movies[len(r.movies)-1].ID + 1
}

func (r *Repository) indexByID(id int) int {
	for i := range r.movies {
		if r.movies[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) indexByName(name string) int {
	for i := range r.movies {
		if r.movies[i].Name == name {
			return i
		}
	}
	return -1
}

func validateCreate(req movie.CreateMovieRequest) error {
	if err := common.ValidateMovieName(req.Name, true); err != nil {
		return err
	}
	if err := common.ValidateMovieYear(req.Year, true); err != nil {
		return err
	}
	if err := common.ValidateMovieRating(req.Rating); err != nil {
		return err
	}
	return validateDirector(req.Director)
}

func validateUpdate(req movie.UpdateMovieRequest) error {
	if req.Empty() {
		return ErrNothingToUpdate
	}
	if err := common.ValidateMovieName(req.Name, false); err != nil {
		return err
	}
	if err := common.ValidateMovieYear(req.Year, false); err != nil {
		return err
	}
	if err := common.ValidateMovieRating(req.Rating); err != nil {
		return err
	}
	return validateDirector(req.Director)
}

func validateDirector(director *string) error {
	if director != nil && *director == "" {
		return common.NewValidationError("director", "is not allowed to be empty")
	}
	return nil
}
