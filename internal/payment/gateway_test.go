package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorApprovesAtFullRate(t *testing.T) {
	gw := NewSimulator(1.0, 0)
	for i := 0; i < 20; i++ {
		ref, err := gw.Charge(context.Background(), 5000)
		require.NoError(t, err)
		_, parseErr := uuid.Parse(ref)
		assert.NoError(t, parseErr, "the provider reference must be a valid uuid")
	}
}

func TestSimulatorDeclinesAtZeroRate(t *testing.T) {
	gw := NewSimulator(0, 0)
	for i := 0; i < 20; i++ {
		ref, err := gw.Charge(context.Background(), 5000)
		assert.ErrorIs(t, err, ErrDeclined)
		assert.NotEmpty(t, ref, "a decline still carries the provider reference")
	}
}

func TestSimulatorAbandonsOnCancelledContext(t *testing.T) {
	gw := NewSimulator(1.0, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ref, err := gw.Charge(ctx, 5000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ref)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the processing delay short")
}

func TestSimulatorWaitsOutDelay(t *testing.T) {
	gw := NewSimulator(1.0, 20*time.Millisecond)
	start := time.Now()
	_, err := gw.Charge(context.Background(), 5000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
