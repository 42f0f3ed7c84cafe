package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBeforeStart_Order(t *testing.T) {
	var h Hooks
	var ran []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		h.OnBeforeStart(name, func(context.Context) error {
			ran = append(ran, name)
			return nil
		})
	}
	assert.Equal(t, []string{"a", "b", "c"}, h.Pending())

	require.NoError(t, h.RunBeforeStart(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	assert.Empty(t, h.Pending())

	// Actions run once.
	require.NoError(t, h.RunBeforeStart(context.Background()))
	assert.Len(t, ran, 3)
}

func TestRunBeforeStart_StopsAtFirstError(t *testing.T) {
	var h Hooks
	boom := errors.New("boom")
	calledAfter := false

	h.OnBeforeStart("ok", func(context.Context) error { return nil })
	h.OnBeforeStart("migrate:primary", func(context.Context) error { return boom })
	h.OnBeforeStart("later", func(context.Context) error { calledAfter = true; return nil })

	err := h.RunBeforeStart(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate:primary")
	assert.False(t, calledAfter)
	assert.Equal(t, []string{"later"}, h.Pending())
}

func TestRunBeforeStart_CanceledContext(t *testing.T) {
	var h Hooks
	called := false
	h.OnBeforeStart("x", func(context.Context) error { called = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.RunBeforeStart(ctx), context.Canceled)
	assert.False(t, called)
	assert.Equal(t, []string{"x"}, h.Pending())
}

func TestRunBeforeStart_ActionMayQueueMore(t *testing.T) {
	var h Hooks
	var ran []string
	h.OnBeforeStart("first", func(context.Context) error {
		ran = append(ran, "first")
		h.OnBeforeStart("second", func(context.Context) error {
			ran = append(ran, "second")
			return nil
		})
		return nil
	})

	require.NoError(t, h.RunBeforeStart(context.Background()))
	assert.Equal(t, []string{"first", "second"}, ran)
}
