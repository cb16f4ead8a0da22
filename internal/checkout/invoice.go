package checkout

import (
	"fmt"
	"sync"
	"time"
)

// InvoiceSequence hands out invoice ids of the form INV-YYYYMMDD-<unix ms>.
// The millisecond suffix is strictly increasing for the lifetime of the
// sequence, even when two checkouts land in the same millisecond or the
// clock steps backwards.
type InvoiceSequence struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewInvoiceSequence creates a sequence driven by now; nil means time.Now
func NewInvoiceSequence(now func() time.Time) *InvoiceSequence {
	if now == nil {
		now = time.Now
	}
	return &InvoiceSequence{now: now}
}

// Next returns the next invoice id together with the time it was issued at
func (s *InvoiceSequence) Next() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	ms := ts.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms

	day := time.UnixMilli(ms).In(ts.Location())
	return fmt.Sprintf("INV-%s-%d", day.Format("20060102"), ms), ts
}
