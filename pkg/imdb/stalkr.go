package imdb

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/StalkR/imdb"
	"github.com/ogero/movies-api/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type stalkrIMDB struct {
	httpClient *http.Client
	getTitle   func(c *http.Client, id string) (*imdb.Title, error)
}

// NewStalkrIMDB creates a new instance of the Stalkr implementation of the IMDB service.
func NewStalkrIMDB() IMDB {

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxConnsPerHost = 10
	t.MaxIdleConnsPerHost = 10

	rt := transport.NewModifyHeadersRoundTripper(t,
		transport.WithAcceptLanguage("en"), // avoid IP-based language detection
		transport.WithUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"),
	)

	return &stalkrIMDB{
		httpClient: &http.Client{
			Timeout:   time.Second * 10,
			Transport: rt,
		},
		getTitle: imdb.NewTitle,
	}
}

// GetTitle gets a Title by its ID. Titles without a parseable rating get a zero Rating.
func (c *stalkrIMDB) GetTitle(ctx context.Context, imdbID string) (*Title, error) {

	_, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "imdb.IMDB.GetTitle")
	defer span.End()
	span.SetAttributes(attribute.String("imdb.id", imdbID))

	imdbResult, err := c.getTitle(c.httpClient, imdbID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to stalkrIMDB.getTitle: %w", err)
	}

	title := &Title{
		ID:   imdbID,
		Name: imdbResult.Name,
		Year: imdbResult.Year,
	}
	if rating, err := strconv.ParseFloat(imdbResult.Rating, 64); err == nil {
		title.Rating = rating
	}
	if len(imdbResult.Directors) > 0 {
		title.Director = imdbResult.Directors[0].FullName
	}

	return title, nil
}
