package ids

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewImageName(t *testing.T) {
	name := NewImageName("jpg")

	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Len(t, name, 27+len(".jpg"))
}

func TestNewImageNameUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		name := NewImageName("png")
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestNewSecret(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)

	a := NewSecret()
	b := NewSecret()

	assert.Regexp(t, hexPattern, a)
	assert.Regexp(t, hexPattern, b)
	assert.NotEqual(t, a, b)
}
