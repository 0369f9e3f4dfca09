package breeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommaTokens(t *testing.T) {
	assert.Equal(t, []string{"keep-alive", "Upgrade"}, commaTokens("keep-alive, Upgrade"))
	assert.Equal(t, []string{"a"}, commaTokens("  a  "))
	assert.Equal(t, []string{}, commaTokens(""))
	assert.Equal(t, []string{"a", "b"}, commaTokens("a,,b"))
}

func TestHasToken(t *testing.T) {
	assert.True(t, HasToken("keep-alive, Upgrade", "upgrade"))
	assert.True(t, HasToken("Upgrade", "UPGRADE"))
	assert.False(t, HasToken("keep-alive", "upgrade"))
	assert.False(t, HasToken("", "upgrade"))
}
