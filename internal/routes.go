package internal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router serving the movies API.
// Movies are reachable under both /movies/{id} and /movie/{id}.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)
	r.Use(a.RecoverPanic)

	r.Get("/", a.StatusHandler)

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", a.ListMoviesHandler)
		r.Post("/", a.CreateMovieHandler)
		a.movieRoutes(r)
	})
	r.Route("/movie", a.movieRoutes)

	if a.ProviderStates {
		r.Post("/_pact/provider-states", a.ProviderStatesHandler)
	}

	r.HandleFunc("/connection/websocket", a.WebsocketHandler)

	return r
}

func (a *App) movieRoutes(r chi.Router) {
	r.Get("/{id}", a.GetMovieHandler)
	r.Put("/{id}", a.UpdateMovieHandler)
	r.Delete("/{id}", a.DeleteMovieHandler)
}
