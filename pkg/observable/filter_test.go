package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, Path{"a", "b"}, ParsePath("a.b"))
	assert.Equal(t, Path{"a", "b"}, ParsePath(".a..b."))
	assert.Equal(t, "a.0.b", Path{"a", "0", "b"}.String())
	assert.Equal(t, "b", Path{"a", "b"}.Key())
	assert.Equal(t, "", Path{}.Key())
}

func TestPathHasPrefix(t *testing.T) {
	assert.True(t, Path{"a", "b"}.HasPrefix(nil))
	assert.True(t, Path{"a", "b"}.HasPrefix(Path{"a"}))
	assert.False(t, Path{"ab"}.HasPrefix(Path{"a"}))
	assert.False(t, Path{"a"}.HasPrefix(Path{"a", "b"}))
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, "all", All().String())
	assert.Equal(t, "path(a.b)", ExactPath("a.b").String())
	assert.Equal(t, "pathsOf()", PathsOf("").String())
	assert.Equal(t, `pathsFrom(a) where type == "insert"`, PathsFrom("a").Where(`type == "insert"`).String())
}

func TestFilterComparable(t *testing.T) {
	assert.True(t, PathsFrom("a") == PathsFrom("a"))
	assert.False(t, PathsFrom("a") == PathsOf("a"))
	assert.False(t, All() == All().Where("true"))
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, All().Validate())
	assert.NoError(t, PathsOf("").Validate())
	assert.NoError(t, PathsFrom("a").Where(`depth > 1`).Validate())
	assert.ErrorIs(t, PathsFrom("").Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, ExactPath("").Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, All().Where("nope(").Validate(), ErrInvalidArgument)
}
