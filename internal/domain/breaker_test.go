package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_TripsOnConsecutiveRejections(t *testing.T) {
	cb := NewCircuitBreaker(3)
	cb.RecordRejection("a")
	cb.RecordRejection("b")
	cb.RecordSuccess()
	cb.RecordRejection("c")
	cb.RecordRejection("d")
	assert.True(t, cb.IsOpen())

	cb.RecordRejection("e")
	assert.False(t, cb.IsOpen())
	assert.Equal(t, "e", cb.TriggeredReason)
}

func TestCircuitBreaker_ZeroDisables(t *testing.T) {
	cb := NewCircuitBreaker(0)
	for i := 0; i < 100; i++ {
		cb.RecordRejection("x")
	}
	assert.True(t, cb.IsOpen())
}
