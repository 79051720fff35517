package state

import "sync"

const defaultHistorySize = 120

// StoreImpl is a thread-safe in-memory store. The monitor writes it after
// every probe; the dashboard and metrics handler read snapshots.
type StoreImpl struct {
	mu          sync.RWMutex
	order       []string
	targets     map[string]*TargetStatus
	historySize int
}

// NewStore creates a store pre-registered with the configured targets so
// snapshots keep the configured order.
func NewStore(targets []string) *StoreImpl {
	s := &StoreImpl{
		targets:     make(map[string]*TargetStatus, len(targets)),
		historySize: defaultHistorySize,
	}
	for _, target := range targets {
		if _, ok := s.targets[target]; ok {
			continue
		}
		s.order = append(s.order, target)
		s.targets[target] = &TargetStatus{Target: target}
	}
	return s
}

// Update folds one probe record into the target's aggregate.
func (s *StoreImpl) Update(rec ProbeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.targets[rec.Target]
	if !ok {
		status = &TargetStatus{Target: rec.Target}
		s.order = append(s.order, rec.Target)
		s.targets[rec.Target] = status
	}

	status.LastRaw = rec.Raw
	status.LastLatencyMs = rec.LatencyMs
	status.LastHasRTT = rec.HasLatency
	status.LastSeverity = rec.Severity
	status.LastProbeAt = rec.Timestamp
	status.Probes++
	if rec.Severity == SeverityFail {
		status.Failures++
	}

	s.appendHistory(status, rec)
}

// Snapshot returns copies of all target aggregates in configured order.
func (s *StoreImpl) Snapshot() []TargetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TargetStatus, 0, len(s.order))
	for _, target := range s.order {
		result = append(result, copyTargetStatus(s.targets[target]))
	}
	return result
}

// Get returns a copy of a single target aggregate.
func (s *StoreImpl) Get(target string) (TargetStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.targets[target]
	if !ok {
		return TargetStatus{}, false
	}
	return copyTargetStatus(status), true
}

func (s *StoreImpl) appendHistory(status *TargetStatus, rec ProbeRecord) {
	if s.historySize <= 0 {
		return
	}
	point := HistoryPoint{
		Time:       rec.Timestamp,
		LatencyMs:  rec.LatencyMs,
		HasLatency: rec.HasLatency,
		Severity:   rec.Severity,
	}
	if len(status.History) < s.historySize {
		status.History = append(status.History, point)
		return
	}
	copy(status.History, status.History[1:])
	status.History[len(status.History)-1] = point
}

func copyTargetStatus(source *TargetStatus) TargetStatus {
	clone := *source
	if len(source.History) > 0 {
		clone.History = append([]HistoryPoint(nil), source.History...)
	}
	return clone
}
