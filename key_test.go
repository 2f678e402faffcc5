package throttle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder(t *testing.T) {
	kb := KeyBuilder{Prefix: DefaultKeyPrefix}

	// Same identity and suffix always yields the same key.
	assert.Equal(t, kb.Key(ClientKey("42"), ""), kb.Key(ClientKey("42"), ""))
	assert.Equal(t, "throttle_42", kb.Key(ClientKey("42"), ""))
	assert.Equal(t, "throttle_42upload", kb.Key(ClientKey("42"), "upload"))

	// Distinct suffixes partition the same identity.
	assert.NotEqual(t, kb.Key(ClientKey("42"), "a"), kb.Key(ClientKey("42"), "b"))

	// Distinct identities never collide under the same suffix.
	assert.NotEqual(t, kb.Key(ClientKey("42"), "a"), kb.Key(ClientKey("43"), "a"))
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "throttle_42_b1000", bucketKey("throttle_42", 1000))
	assert.Equal(t, "throttle_42sfx_b998", bucketKey("throttle_42sfx", 998))
}

func TestClientKeyAnonymous(t *testing.T) {
	assert.True(t, ClientKey("").Anonymous())
	assert.False(t, ClientKey("42").Anonymous())
	assert.Equal(t, "42", ClientKey("42").ID())
}
