package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPopulatesMetadata(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := New(cause).
		Component("datastore").
		Category(CategoryDatabase).
		Priority(PriorityHigh).
		Context("object_id", 7).
		Build()

	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, "datastore", err.GetComponent())
	assert.Equal(t, string(CategoryDatabase), err.GetCategory())
	assert.Equal(t, PriorityHigh, err.GetPriority())
	assert.Equal(t, 7, err.GetContext()["object_id"])
	assert.False(t, err.GetTimestamp().IsZero())
	assert.ErrorIs(t, err, cause)
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf("object %d missing", 42).Category(CategoryNotFound).Build()
	assert.Equal(t, "object 42 missing", err.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundError("monitored object", 3)))
	assert.False(t, IsNotFound(ValidationError("bad input")))
	assert.False(t, IsNotFound(fmt.Errorf("plain error")))
	assert.False(t, IsNotFound(nil))

	// Category survives wrapping.
	wrapped := fmt.Errorf("outer: %w", NotFoundError("user", 1))
	assert.True(t, IsNotFound(wrapped))
}

func TestReportedFlag(t *testing.T) {
	err := Newf("x").Build()
	assert.False(t, err.IsReported())
	err.MarkReported()
	assert.True(t, err.IsReported())
}

func TestHooksReceiveBuiltErrors(t *testing.T) {
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var received []*EnhancedError
	AddErrorHook(func(ee *EnhancedError) {
		received = append(received, ee)
	})

	built := Newf("boom").Component("detection").Category(CategoryDetection).Build()

	require.Len(t, received, 1)
	assert.Same(t, built, received[0])
}
