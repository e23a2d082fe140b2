package webhooks

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// PropagationRecord is one webhook call made by the dispatcher
type PropagationRecord struct {
	ID        uuid.UUID     `json:"id"`
	HookID    uuid.UUID     `json:"hookId"`
	Trigger   Trigger       `json:"trigger"`
	URL       string        `json:"url"`
	Status    int           `json:"status"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PropagationStats summarises the records kept for one hook
type PropagationStats struct {
	HookID          uuid.UUID     `json:"hookId"`
	Total           int           `json:"total"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	SuccessRate     float64       `json:"successRate"`
	AverageDuration time.Duration `json:"averageDuration"`
}

// PropagationLog is a bounded in-process log of recent propagations.
// A nil *PropagationLog discards everything.
type PropagationLog struct {
	records    map[uuid.UUID]*PropagationRecord
	mutex      sync.RWMutex
	maxRecords int
}

// NewPropagationLog creates a log holding at most maxRecords entries
func NewPropagationLog(maxRecords int) *PropagationLog {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &PropagationLog{
		records:    make(map[uuid.UUID]*PropagationRecord),
		maxRecords: maxRecords,
	}
}

// Add stores a record, evicting the oldest tenth when full
func (l *PropagationLog) Add(record PropagationRecord) {
	if l == nil {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if len(l.records) >= l.maxRecords {
		l.evictOldest()
	}
	l.records[record.ID] = &record
}

// Recent returns the newest records for hookID first; limit <= 0 returns all
func (l *PropagationLog) Recent(hookID uuid.UUID, limit int) []PropagationRecord {
	if l == nil {
		return nil
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var out []PropagationRecord
	for _, r := range l.records {
		if r.HookID == hookID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats aggregates the records kept for hookID
func (l *PropagationLog) Stats(hookID uuid.UUID) PropagationStats {
	stats := PropagationStats{HookID: hookID}
	if l == nil {
		return stats
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var total time.Duration
	for _, r := range l.records {
		if r.HookID != hookID {
			continue
		}
		stats.Total++
		total += r.Duration
		if r.Succeeded {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
		stats.AverageDuration = total / time.Duration(stats.Total)
	}
	return stats
}

// Len returns the number of records held
func (l *PropagationLog) Len() int {
	if l == nil {
		return 0
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.records)
}

// Prune drops records created before cutoff and returns how many were removed
func (l *PropagationLog) Prune(cutoff time.Time) int {
	if l == nil {
		return 0
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	removed := 0
	for id, r := range l.records {
		if r.CreatedAt.Before(cutoff) {
			delete(l.records, id)
			removed++
		}
	}
	return removed
}

// evictOldest removes the oldest 10% of records. Callers hold the write lock.
func (l *PropagationLog) evictOldest() {
	records := make([]*PropagationRecord, 0, len(l.records))
	for _, r := range l.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })

	n := len(records) / 10
	if n == 0 {
		n = 1
	}
	for _, r := range records[:n] {
		delete(l.records, r.ID)
	}
}

// SchedulePruning registers a cron job on c that drops records older than retention
func (l *PropagationLog) SchedulePruning(c *cron.Cron, schedule string, retention time.Duration, logger *observability.Logger) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		defer observability.RecoverPanic(logger, "propagation log pruning")

		if removed := l.Prune(time.Now().UTC().Add(-retention)); removed > 0 {
			logger.WithField("removed", removed).Debug("Pruned propagation log")
		}
	})
}
