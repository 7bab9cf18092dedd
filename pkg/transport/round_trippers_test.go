package transport_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/ogero/movies-api/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func TestModifyHeadersRoundTripper(t *testing.T) {
	mockRT := &mockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "TestAgent", req.Header.Get("User-Agent"))
			assert.Equal(t, "en-US", req.Header.Get("Accept-Language"))
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			return nil, nil
		},
	}

	rt := transport.NewModifyHeadersRoundTripper(mockRT,
		transport.WithUserAgent("TestAgent"),
		transport.WithAcceptLanguage("en-US"),
		transport.WithAccept("application/json"))

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, _ = rt.RoundTrip(req)

	assert.Empty(t, req.Header.Get("User-Agent"), "caller request must be left untouched")
}

func TestModifyHeadersRoundTripper_WithAuthorization(t *testing.T) {
	var calls int
	var got []string
	mockRT := &mockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			got = append(got, req.Header.Get("Authorization"))
			return nil, nil
		},
	}

	rt := transport.NewModifyHeadersRoundTripper(mockRT, transport.WithAuthorization(func() string {
		calls++
		return "Bearer " + strconv.Itoa(calls)
	}))

	for range 2 {
		req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
		require.NoError(t, err)
		_, _ = rt.RoundTrip(req)
	}

	assert.Equal(t, []string{"Bearer 1", "Bearer 2"}, got)
}
