package newsletter_test

import (
	"strings"
	"testing"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIKey(t *testing.T) {
	key := newsletter.NewAPIKey()

	assert.True(t, strings.HasPrefix(key, "nlt_"))
	assert.Len(t, key, len("nlt_")+40)

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		k := newsletter.NewAPIKey()
		_, dup := seen[k]
		assert.False(t, dup, "api keys must not repeat")
		seen[k] = struct{}{}
	}
}

func TestUserAddMetadata(t *testing.T) {
	user := &newsletter.User{}
	user.AddMetadata("source", "import").AddMetadata("batch", 3)

	assert.Equal(t, "import", user.Metadata["source"])
	assert.Equal(t, 3, user.Metadata["batch"])
}
