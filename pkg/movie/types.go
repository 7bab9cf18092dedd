package movie

// Movie represents a movie record as served by the movies API
type Movie struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Year     int     `json:"year"`
	Rating   float64 `json:"rating,omitempty"`
	Director string  `json:"director,omitempty"`
}

// CreateMovieRequest is the payload accepted when adding a movie.
// Pointer fields tell a missing field apart from its zero value.
type CreateMovieRequest struct {
	Name     *string  `json:"name"`
	Year     *int     `json:"year"`
	Rating   *float64 `json:"rating,omitempty"`
	Director *string  `json:"director,omitempty"`
}

// UpdateMovieRequest is the payload accepted when updating a movie. Only the provided fields are replaced.
type UpdateMovieRequest struct {
	Name     *string  `json:"name,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Director *string  `json:"director,omitempty"`
}

// Empty reports whether the request carries no field at all.
func (r UpdateMovieRequest) Empty() bool {
	return r.Name == nil && r.Year == nil && r.Rating == nil && r.Director == nil
}

// ErrorResponse is the body returned on any non 2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body returned by operations that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// Envelope wraps response bodies on deployments configured to do so
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProviderState is the payload a contract verifier posts before replaying an interaction
type ProviderState struct {
	Consumer string         `json:"consumer,omitempty"`
	State    string         `json:"state"`
	Params   map[string]any `json:"params,omitempty"`
	Action   string         `json:"action,omitempty"`
}

// Ptr returns a pointer to v. Handy for building requests.
func Ptr[T any](v T) *T {
	return &v
}
