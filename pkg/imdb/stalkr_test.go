package imdb

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/StalkR/imdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStalkrIMDB_GetTitle(t *testing.T) {

	s := &stalkrIMDB{
		httpClient: &http.Client{},
		getTitle: func(c *http.Client, id string) (*imdb.Title, error) {
			switch id {
			case "tt1375666":
				return &imdb.Title{
					Name:   "Inception",
					Year:   2010,
					Rating: "8.8",
					Directors: []imdb.Name{
						{FullName: "Christopher Nolan"},
						{FullName: "Someone Else"},
					},
				}, nil
			case "tt0000001":
				return &imdb.Title{
					Name: "Carmencita",
					Year: 1894,
				}, nil
			}
			return nil, fmt.Errorf("unexpected id %s", id)
		},
	}

	title, err := s.GetTitle(context.Background(), "tt1375666")
	require.NoError(t, err)
	assert.Equal(t, &Title{ID: "tt1375666", Name: "Inception", Year: 2010, Rating: 8.8, Director: "Christopher Nolan"}, title)

	title, err = s.GetTitle(context.Background(), "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, &Title{ID: "tt0000001", Name: "Carmencita", Year: 1894}, title)

	_, err = s.GetTitle(context.Background(), "tt404")
	assert.Error(t, err)
}
