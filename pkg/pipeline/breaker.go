package pipeline

import "fmt"

// breaker counts consecutive failed units. Once tripped it stays tripped for
// the rest of the run.
type breaker struct {
	limit   int
	streak  int
	tripped bool
}

// record feeds one outcome and reports whether this call tripped the breaker.
func (b *breaker) record(success bool) bool {
	if b.limit <= 0 || b.tripped {
		return false
	}
	if success {
		b.streak = 0
		return false
	}
	b.streak++
	if b.streak >= b.limit {
		b.tripped = true
		return true
	}
	return false
}

func (b *breaker) reason() string {
	return fmt.Sprintf("Aborted due to %d consecutive failures", b.limit)
}
