package checkout

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryCompleteFirstCallerWins(t *testing.T) {
	cases := []struct {
		name     string
		triggers []Trigger
	}{
		{"challenge then pay", []Trigger{TriggerChallenge, TriggerExplicitPay}},
		{"pay then challenge", []Trigger{TriggerExplicitPay, TriggerChallenge}},
		{"same trigger twice", []Trigger{TriggerExplicitPay, TriggerExplicitPay}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			guard := NewCompletionGuard()
			assert.True(t, guard.TryComplete(tc.triggers[0]))
			assert.False(t, guard.TryComplete(tc.triggers[1]))
			assert.Equal(t, tc.triggers[0], guard.Winner())
			assert.True(t, guard.Completed())
		})
	}
}

func TestTryCompleteConcurrentExactlyOneWinner(t *testing.T) {
	guard := NewCompletionGuard()
	var wins int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		trigger := TriggerChallenge
		if i%2 == 0 {
			trigger = TriggerExplicitPay
		}
		wg.Add(1)
		go func(tr Trigger) {
			defer wg.Done()
			if guard.TryComplete(tr) {
				atomic.AddInt64(&wins, 1)
			}
		}(trigger)
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.True(t, guard.Completed())
	assert.NotEmpty(t, guard.Winner())
}
