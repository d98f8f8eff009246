package service

import (
	"time"

	"forest_monitor/internal/models"
)

// Defaults for the history buffer.
const (
	DefaultHistoryCapacity = 20
	DefaultAdmitInterval   = 5 * time.Second
)

// HistoryBuffer is a bounded FIFO of state snapshots with an admission policy.
// Like StateStore it relies on the caller for locking.
type HistoryBuffer struct {
	entries  []models.HistorySnapshot
	capacity int
	interval time.Duration
}

func NewHistoryBuffer(capacity int, interval time.Duration) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	if interval <= 0 {
		interval = DefaultAdmitInterval
	}
	return &HistoryBuffer{
		entries:  make([]models.HistorySnapshot, 0, capacity),
		capacity: capacity,
		interval: interval,
	}
}

// MaybeAdmit appends snap if the admission policy allows it:
// an empty buffer admits, a FireProbability trigger admits, otherwise
// more than interval must have passed since the last admitted snapshot.
// Rejected snapshots are dropped silently.
func (b *HistoryBuffer) MaybeAdmit(trigger models.Channel, snap models.LatestState, now time.Time) bool {
	if !b.shouldAdmit(trigger, now) {
		return false
	}
	b.push(models.HistorySnapshot{State: snap.Clone(), AdmittedAt: now})
	return true
}

func (b *HistoryBuffer) shouldAdmit(trigger models.Channel, now time.Time) bool {
	if len(b.entries) == 0 {
		return true
	}
	if trigger == models.ChannelFireProbability {
		return true
	}
	last := b.entries[len(b.entries)-1].AdmittedAt
	return now.Sub(last) > b.interval
}

func (b *HistoryBuffer) push(s models.HistorySnapshot) {
	if len(b.entries) >= b.capacity {
		copy(b.entries, b.entries[1:])
		b.entries[len(b.entries)-1] = s
		return
	}
	b.entries = append(b.entries, s)
}

func (b *HistoryBuffer) Len() int { return len(b.entries) }

func (b *HistoryBuffer) Capacity() int { return b.capacity }

// Last returns up to n most recent snapshots, oldest first.
func (b *HistoryBuffer) Last(n int) []models.HistorySnapshot {
	if n <= 0 || len(b.entries) == 0 {
		return []models.HistorySnapshot{}
	}
	start := len(b.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.HistorySnapshot, len(b.entries)-start)
	copy(out, b.entries[start:])
	return out
}

// All returns every snapshot, oldest first.
func (b *HistoryBuffer) All() []models.HistorySnapshot {
	return b.Last(len(b.entries))
}
