package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	t.Parallel()
	v := false
	p := To(v)
	v = true
	assert.False(t, *p)
}

func TestDeref(t *testing.T) {
	t.Parallel()
	assert.True(t, Deref(nil, true))
	assert.False(t, Deref(To(false), true))
	assert.Equal(t, "info", Deref((*string)(nil), "info"))
}
