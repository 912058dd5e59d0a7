package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	t.Parallel()
	ctx := NewContext()
	assert.NotEmpty(t, ctx.SessionID)
	assert.NotNil(t, ctx.Data)
	assert.False(t, ctx.CreatedAt.IsZero())

	other := NewContext()
	assert.NotEqual(t, ctx.SessionID, other.SessionID)
}

func TestContext_SetGet(t *testing.T) {
	t.Parallel()
	ctx := NewContext()

	ctx.Set("key", "value")
	v, ok := ctx.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = ctx.Get("missing")
	assert.False(t, ok)

	s, ok := ctx.GetString("key")
	assert.True(t, ok)
	assert.Equal(t, "value", s)

	_, ok = ctx.GetString("missing")
	assert.False(t, ok)

	ctx.Set("number", 42)
	_, ok = ctx.GetString("number")
	assert.False(t, ok)
}

func TestContext_Delete(t *testing.T) {
	t.Parallel()
	ctx := NewContext()
	ctx.Set("key", "value")
	ctx.Delete("key")
	_, ok := ctx.Get("key")
	assert.False(t, ok)
}

func TestContext_Keys(t *testing.T) {
	t.Parallel()
	ctx := NewContext()
	ctx.Set("b", 1)
	ctx.Set("a", 2)
	assert.ElementsMatch(t, []string{"a", "b"}, ctx.Keys())
}

func TestResultKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "result:fetch", ResultKey("fetch"))
}
