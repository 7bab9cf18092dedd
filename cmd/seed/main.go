package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogero/movies-api/internal/cache"
	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/config"
	"github.com/ogero/movies-api/pkg/client"
	"github.com/ogero/movies-api/pkg/imdb"
	"github.com/ogero/movies-api/pkg/movie"
)

const titleCacheTTL = 48 * time.Hour

// seeder adds IMDb titles to the movies API.
type seeder struct {
	cache  *cache.Cache
	imdb   imdb.IMDB
	movies *client.Client
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	imdbIDs := os.Args[1:]
	if len(imdbIDs) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s <imdb id>...\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(fmt.Errorf("failed to config.Load: %w", err))
	}

	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to cache.Open: %w", err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			common.Log.Error("Failed to cache.Close", "err", err)
		}
	}()

	moviesClient, err := client.New(cfg.APIURL, client.WithEnvelope(cfg.ResponseEnvelope))
	if err != nil {
		log.Fatal(fmt.Errorf("failed to client.New: %w", err))
	}

	s := &seeder{cache: c, imdb: imdb.NewStalkrIMDB(), movies: moviesClient}

	var failed int
	for _, imdbID := range imdbIDs {
		if ctx.Err() != nil {
			break
		}
		if err := s.seed(ctx, imdbID); err != nil {
			common.Log.ErrorContext(ctx, "Failed to seed movie", "imdbID", imdbID, "err", err)
			failed++
		}
	}

	if failed > 0 {
		common.Log.Error("Seeding finished with errors", "failed", failed, "total", len(imdbIDs))
		os.Exit(1)
	}
}

// seed looks imdbID up and adds it as a movie. Movies already present are skipped.
func (s *seeder) seed(ctx context.Context, imdbID string) error {
	if err := common.ValidateIMDBTitleID(imdbID); err != nil {
		return err
	}

	cacheOp := "hit"
	title, err := cache.Memoize[imdb.Title](s.cache, fmt.Sprintf("imdb.title : %s", imdbID), titleCacheTTL, func() (*imdb.Title, error) {
		cacheOp = "miss"
		return s.imdb.GetTitle(ctx, imdbID)
	})
	if err != nil {
		return fmt.Errorf("failed to imdb.IMDB.GetTitle: %w", err)
	}
	common.Log.DebugContext(ctx, "IMDB title", "imdbID", imdbID, "cacheOp", cacheOp)

	m, err := s.movies.AddMovie(ctx, newCreateMovieRequest(title))
	if client.IsStatus(err, http.StatusConflict) {
		common.Log.InfoContext(ctx, "Movie already exists, skipped", "imdbID", imdbID, "name", title.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to client.Client.AddMovie: %w", err)
	}

	common.Log.InfoContext(ctx, "Movie added", "imdbID", imdbID, common.MovieAttr(*m))

	return nil
}

// newCreateMovieRequest maps title to a movie, leaving out details the movies API would reject.
func newCreateMovieRequest(title *imdb.Title) movie.CreateMovieRequest {
	req := movie.CreateMovieRequest{
		Name: movie.Ptr(title.Name),
		Year: movie.Ptr(title.Year),
	}
	if common.ValidateMovieRating(&title.Rating) == nil {
		req.Rating = movie.Ptr(title.Rating)
	}
	if title.Director != "" {
		req.Director = movie.Ptr(title.Director)
	}
	return req
}
