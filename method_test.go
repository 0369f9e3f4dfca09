package breeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodString(t *testing.T) {
	assert.Equal(t, "GET", GET.String())
	assert.Equal(t, "POST", POST.String())
	assert.Equal(t, "TRACE", TRACE.String())
	assert.Equal(t, "", Method(0).String())
	assert.Equal(t, "", Method(99).String())
}

func TestParseMethod(t *testing.T) {
	m, ok := parseMethod("GET")
	assert.True(t, ok)
	assert.Equal(t, GET, m)

	m, ok = parseMethod("DELETE")
	assert.True(t, ok)
	assert.Equal(t, DELETE, m)

	_, ok = parseMethod("get")
	assert.False(t, ok)

	_, ok = parseMethod("FOOBAR")
	assert.False(t, ok)
}

func TestMethodByNameFold(t *testing.T) {
	m, ok := methodByNameFold("get")
	assert.True(t, ok)
	assert.Equal(t, GET, m)

	m, ok = methodByNameFold("Post")
	assert.True(t, ok)
	assert.Equal(t, POST, m)

	_, ok = methodByNameFold("foobar")
	assert.False(t, ok)
}
