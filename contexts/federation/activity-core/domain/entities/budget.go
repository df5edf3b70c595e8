package entities

// RequestBudget bounds how many remote fetches a single inbound-processing
// run may trigger. One budget is minted per run and threaded through every
// nested resolution call; it is never shared across unrelated runs.
type RequestBudget struct {
	remaining int
}

func NewRequestBudget(limit int) *RequestBudget {
	if limit < 0 {
		limit = 0
	}
	return &RequestBudget{remaining: limit}
}

// Spend consumes one fetch from the budget. It reports false once the
// budget is exhausted; cache hits must not call it.
func (b *RequestBudget) Spend() bool {
	if b == nil || b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

func (b *RequestBudget) Remaining() int {
	if b == nil {
		return 0
	}
	return b.remaining
}
