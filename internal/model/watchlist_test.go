package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovieEntry_GenreList(t *testing.T) {
	m := MovieEntry{Genres: "Action, Sci-Fi,  Thriller"}
	assert.Equal(t, []string{"Action", "Sci-Fi", "Thriller"}, m.GenreList())

	assert.Nil(t, MovieEntry{}.GenreList())
	assert.Nil(t, MovieEntry{Genres: " , "}.GenreList())
}
