package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `form:"new_watchlist_name" validate:"required,max=5"`
	Email string `form:"email" validate:"omitempty,email"`
}

func TestMap_Valid(t *testing.T) {
	assert.Nil(t, Map(sample{Name: "abc"}))
}

func TestMap_UsesFormNames(t *testing.T) {
	errs := Map(sample{Email: "nope"})
	assert.Equal(t, "is required", errs["new_watchlist_name"])
	assert.Equal(t, "must be a valid email address", errs["email"])

	errs = Map(sample{Name: strings.Repeat("x", 6)})
	assert.Equal(t, "must be at most 5 characters", errs["new_watchlist_name"])
}

func TestFirst(t *testing.T) {
	errs := map[string]string{"a": "is required", "b": "is bad"}
	assert.Equal(t, "B is bad.", First(errs, "b", "a"))
	assert.Equal(t, "New watchlist name is required.", First(map[string]string{"new_watchlist_name": "is required"}))
	assert.Empty(t, First(nil))
}
