package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LookupTitle(t *testing.T) {
	var gotKey, gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apikey")
		gotTitle = r.URL.Query().Get("t")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Title":"The Matrix","Year":"1999","Genre":"Action, Sci-Fi","imdbRating":"8.7","Response":"True"}`))
	}))
	defer server.Close()

	c := New("k3y", server.URL, 5*time.Second)
	mv, err := c.LookupTitle(context.Background(), "the matrix & more")
	require.NoError(t, err)

	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, "the matrix & more", gotTitle)
	assert.Equal(t, &Movie{Title: "The Matrix", Year: 1999, Score: 8.7, Genres: "Action, Sci-Fi"}, mv)
}

func TestClient_LookupTitle_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer server.Close()

	_, err := New("k", server.URL, time.Second).LookupTitle(context.Background(), "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_LookupTitle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad status", http.StatusUnauthorized, `{"Response":"False","Error":"Invalid API key!"}`, nil},
		{"bad json", http.StatusOK, `{not json`, ErrMalformed},
		{"rating n/a", http.StatusOK, `{"Title":"Obscure","Year":"2020","imdbRating":"N/A"}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New("k", server.URL, time.Second).LookupTitle(context.Background(), "x")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNotFound))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestResponse_Movie(t *testing.T) {
	mv, err := Response{Title: "Dark", Year: "2017–2020", ImdbRating: "8.7", Genre: "Crime"}.Movie()
	require.NoError(t, err)
	assert.Equal(t, 2017, mv.Year)

	_, err = Response{Year: "99", ImdbRating: "1"}.Movie()
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Response{Year: "abcd", ImdbRating: "1"}.Movie()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"Title":"Heat","Year":"1995","Genre":"Crime","imdbRating":"8.3"}`))
	}))
	defer server.Close()
	defer close(release)

	assert.Zero(t, New("k", server.URL, 0).HTTP.Timeout)

	_, err := New("k", server.URL, 50*time.Millisecond).LookupTitle(context.Background(), "heat")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
