package verification

// RetryBudget bounds the automatic retry loops that run before a job is
// launched. The zero value has no budget at all.
type RetryBudget struct {
	Count   int `json:"count"`
	Ceiling int `json:"ceiling"`
}

// NewRetryBudget returns an unused budget allowing ceiling retries.
func NewRetryBudget(ceiling int) RetryBudget {
	if ceiling < 0 {
		ceiling = 0
	}
	return RetryBudget{Ceiling: ceiling}
}

// Spend records one retry. It returns false, leaving the count unchanged,
// once the ceiling has been reached.
func (b *RetryBudget) Spend() bool {
	if b.Count >= b.Ceiling {
		return false
	}
	b.Count++
	return true
}

// Exhausted reports whether no retries remain.
func (b RetryBudget) Exhausted() bool {
	return b.Count >= b.Ceiling
}

// Attempts is the number of requests made in the current loop: the first
// one plus every retry spent.
func (b RetryBudget) Attempts() int {
	return b.Count + 1
}

// Reset zeroes the count after a step succeeds.
func (b *RetryBudget) Reset() {
	b.Count = 0
}
