package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	allowed := map[[2]ResponseStatus]bool{
		{ResponsePending, ResponseAbandoned}:   true,
		{ResponsePending, ResponseDiscarded}:   true,
		{ResponsePending, ResponseCompleted}:   true,
		{ResponseCompleted, ResponseDiscarded}: true,
		{ResponseAbandoned, ResponsePending}:   true,
		{ResponseAbandoned, ResponseDiscarded}: true,
		{ResponseDiscarded, ResponsePending}:   true,
	}
	statuses := []ResponseStatus{ResponsePending, ResponseCompleted, ResponseAbandoned, ResponseDiscarded}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				got, err := Transition(from, to)
				if allowed[[2]ResponseStatus{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, got)
					return
				}

				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidStatusTransition))
				assert.Equal(t, from, got)

				var te *TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, from, te.From)
				assert.Equal(t, to, te.To)
				assert.Contains(t, err.Error(), string(from))
				assert.Contains(t, err.Error(), string(to))
			})
		}
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := Transition(ResponseStatus("archived"), ResponsePending)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.False(t, ResponseStatus("archived").IsValid())
	assert.True(t, ResponseDiscarded.IsValid())
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	targets := AllowedTransitions(ResponseCompleted)
	require.Equal(t, []ResponseStatus{ResponseDiscarded}, targets)

	targets[0] = ResponsePending
	assert.Equal(t, []ResponseStatus{ResponseDiscarded}, AllowedTransitions(ResponseCompleted))
}

func TestNewResponseID(t *testing.T) {
	a, err := NewResponseID()
	require.NoError(t, err)
	b, err := NewResponseID()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestAssessment_ApplyDefaultBounds(t *testing.T) {
	tests := []struct {
		name     string
		method   ScoringMethod
		min, max float64
	}{
		{name: "boolean", method: ScoringBoolean, min: 0, max: 1},
		{name: "scored", method: ScoringScored, min: -1, max: 1},
		{name: "custom keeps values", method: ScoringCustom, min: 3, max: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assessment{ScoringMethod: tt.method, MinValue: 3, MaxValue: 7}
			a.ApplyDefaultBounds()
			assert.Equal(t, tt.min, a.MinValue)
			assert.Equal(t, tt.max, a.MaxValue)
		})
	}
}
