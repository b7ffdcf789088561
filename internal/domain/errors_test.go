package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct{ code int }

func (e codedErr) Error() string  { return fmt.Sprintf("rpc error %d", e.code) }
func (e codedErr) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrTimeout},
		{"revert code", codedErr{code: 3}, ErrNotFound},
		{"revert text", errors.New("execution reverted: INSUFFICIENT_LIQUIDITY"), ErrNotFound},
		{"no code", errors.New("no contract code at given address"), ErrNotFound},
		{"other rpc code", codedErr{code: -32000}, ErrConnectivity},
		{"dial", errors.New("dial tcp: connection refused"), ErrConnectivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestQueryError_Is(t *testing.T) {
	err := fmt.Errorf("scan: %w", NewQueryError("liskswap", "quote", context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrConnectivity)
	assert.Equal(t, "timeout", FailureKind(err))
	assert.Contains(t, err.Error(), "liskswap: quote: timed out")

	// Reclassifying an already-classified error keeps its kind.
	assert.Equal(t, ErrTimeout, Classify(err))
}
