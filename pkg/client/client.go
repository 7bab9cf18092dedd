package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ogero/movies-api/pkg/movie"
	"github.com/ogero/movies-api/pkg/transport"
	"go.opentelemetry.io/otel/trace"
)

const unexpectedError = "Unexpected error occurred"

// ResponseError is returned for any non 2xx response of the movies API.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("movies api responded %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a *ResponseError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == statusCode
}

// GenerateAuthToken returns the bearer token sent on every request.
// The movies API does not check it yet.
func GenerateAuthToken() string {
	return "Bearer " + time.Now().UTC().Format(time.RFC3339)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the Client send requests through c. Its transport is wrapped to add the request headers.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithEnvelope makes the Client expect {status, data} wrapped response bodies.
func WithEnvelope(envelope bool) Option {
	return func(client *Client) {
		client.envelope = envelope
	}
}

// Client is an HTTP client of the movies API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	envelope   bool
}

// New creates a Client for the movies API served at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to url.Parse: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Transport = transport.NewModifyHeadersRoundTripper(hc.Transport,
		transport.WithAccept("application/json"),
		transport.WithAuthorization(GenerateAuthToken),
	)
	c.httpClient = &hc

	return c, nil
}

// GetMovies gets every movie.
func (c *Client) GetMovies(ctx context.Context) ([]movie.Movie, error) {
	var movies []movie.Movie
	if err := c.do(ctx, "GetMovies", http.MethodGet, "/movies", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMovieByID gets a movie by its ID.
func (c *Client) GetMovieByID(ctx context.Context, id int) (*movie.Movie, error) {
	var m movie.Movie
	if err := c.do(ctx, "GetMovieByID", http.MethodGet, "/movies/"+strconv.Itoa(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMovieByName gets a movie by its name.
func (c *Client) GetMovieByName(ctx context.Context, name string) (*movie.Movie, error) {
	var m movie.Movie
	path := "/movies?" + url.Values{"name": {name}}.Encode()
	if err := c.do(ctx, "GetMovieByName", http.MethodGet, path, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AddMovie adds a movie. The API assigns its ID.
func (c *Client) AddMovie(ctx context.Context, req movie.CreateMovieRequest) (*movie.Movie, error) {
	var m movie.Movie
	if err := c.do(ctx, "AddMovie", http.MethodPost, "/movies", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMovie replaces the fields set in req of the movie with the given ID.
func (c *Client) UpdateMovie(ctx context.Context, id int, req movie.UpdateMovieRequest) (*movie.Movie, error) {
	var m movie.Movie
	if err := c.do(ctx, "UpdateMovie", http.MethodPut, "/movies/"+strconv.Itoa(id), req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMovieByID deletes the movie with the given ID and returns the confirmation message.
func (c *Client) DeleteMovieByID(ctx context.Context, id int) (string, error) {
	var resp movie.MessageResponse
	if err := c.do(ctx, "DeleteMovieByID", http.MethodDelete, "/movies/"+strconv.Itoa(id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, name, method, path string, body, dst any) error {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "client.Client."+name)
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to json.Marshal: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to http.NewRequestWithContext: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to http.Client.Do: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to io.ReadAll: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		respErr := &ResponseError{StatusCode: res.StatusCode, Message: unexpectedError}
		var errResp movie.ErrorResponse
		if json.Unmarshal(b, &errResp) == nil && errResp.Error != "" {
			respErr.Message = errResp.Error
		}
		span.RecordError(respErr)
		return respErr
	}

	if c.envelope {
		if _, ok := dst.(*movie.MessageResponse); ok {
			// messages sit next to the status instead of under data
			return decode(b, dst)
		}
		env := movie.Envelope[json.RawMessage]{}
		if err = decode(b, &env); err != nil {
			return err
		}
		b = env.Data
	}

	return decode(b, dst)
}

func decode(b []byte, dst any) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to json.Unmarshal: %w", err)
	}
	return nil
}
