package breeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryGetGetAllContains(t *testing.T) {
	var q Query
	q.Add("a", "1")
	q.Add("b", "2")
	q.Add("a", "3")

	assert.Equal(t, "1", q.Get("a"))
	assert.Equal(t, []string{"1", "3"}, q.GetAll("a"))
	assert.True(t, q.Contains("a"))
	assert.False(t, q.Contains("z"))
	assert.Equal(t, "", q.Get("z"))
}

func TestQueryEncode(t *testing.T) {
	var q Query
	q.Add("name", "rowan co")
	q.Add("tag", "a#b")

	assert.Equal(t, "name=rowan%20co&tag=a%23b", q.Encode())
}

func TestParseQuery(t *testing.T) {
	assert.Nil(t, ParseQuery(""))

	q := ParseQuery("a=1&b=hello+world&flag")
	assert.Equal(t, "1", q.Get("a"))
	assert.Equal(t, "hello world", q.Get("b"))
	assert.True(t, q.Contains("flag"))
	assert.Equal(t, "", q.Get("flag"))

	q = ParseQuery("name=rowan%20co")
	assert.Equal(t, "rowan co", q.Get("name"))
}

func TestURIString(t *testing.T) {
	u := URI{Path: "/foo"}
	assert.Equal(t, "/foo", u.String())

	u.Query = ParseQuery("a=1")
	assert.Equal(t, "/foo?a=1", u.String())
}

func TestParseURI(t *testing.T) {
	u := ParseURI("/foo/bar")
	assert.Equal(t, "/foo/bar", u.Path)
	assert.Empty(t, u.Query)

	u = ParseURI("/search?q=go%20lang&page=2")
	assert.Equal(t, "/search", u.Path)
	assert.Equal(t, "go lang", u.Query.Get("q"))
	assert.Equal(t, "2", u.Query.Get("page"))

	u = ParseURI("/a%2Fb")
	assert.Equal(t, "/a/b", u.Path)
}

func TestHasParentDirComponent(t *testing.T) {
	assert.True(t, hasParentDirComponent("/a/../b"))
	assert.True(t, hasParentDirComponent(".."))
	assert.False(t, hasParentDirComponent("/a/b"))
	assert.False(t, hasParentDirComponent("/a.../b"))
}
