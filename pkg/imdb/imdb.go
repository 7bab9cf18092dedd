package imdb

import "context"

// Title represents a movie title with the details the movies API stores.
type Title struct {
	ID       string
	Name     string
	Year     int
	Rating   float64
	Director string
}

// IMDB defines the methods to interact with the IMDB service.
type IMDB interface {
	// GetTitle gets a Title by its ID.
	GetTitle(ctx context.Context, imdbID string) (*Title, error)
}
