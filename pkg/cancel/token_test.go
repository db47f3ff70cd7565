package cancel

import (
	"sync"
	"testing"
)

func TestToken(t *testing.T) {
	t.Run("InitialState", func(t *testing.T) {
		tok := New()
		if tok.ShouldExit() {
			t.Error("new token should not request exit")
		}
		select {
		case <-tok.Done():
			t.Error("Done() should not be closed")
		default:
		}
	})

	t.Run("RequestExit", func(t *testing.T) {
		tok := New()
		tok.RequestExit("test")
		if !tok.ShouldExit() {
			t.Error("ShouldExit() should be true after RequestExit")
		}
		select {
		case <-tok.Done():
		default:
			t.Error("Done() should be closed")
		}
		if tok.Reason() != "test" {
			t.Errorf("Reason() = %q, want test", tok.Reason())
		}
	})

	t.Run("RepeatedRequestsKeepFirstReason", func(t *testing.T) {
		tok := New()
		tok.RequestExit("first")
		tok.RequestExit("second")
		if tok.Reason() != "first" {
			t.Errorf("Reason() = %q, want first", tok.Reason())
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		tok := New()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				tok.RequestExit("race")
			}()
			go func() {
				defer wg.Done()
				_ = tok.ShouldExit()
			}()
		}
		wg.Wait()
		if !tok.ShouldExit() {
			t.Error("ShouldExit() should be true")
		}
	})
}
