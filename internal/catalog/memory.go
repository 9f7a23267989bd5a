package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory catalog used by tests and local development.
// It is not intended for production use.
type Memory struct {
	mu    sync.Mutex
	clock func() time.Time

	employees   map[string]*Employee // by id
	byPhone     map[string]string    // phone -> employee id
	byPin       map[string]string    // pin -> employee id
	jobs        map[string]JobTemplate
	patients    map[string]Patient         // by patient id
	authorized  map[string]map[string]bool // job id -> employee id -> allowed
	occurrences map[string][]Occurrence    // job id -> occurrences

	released    map[string]string    // occurrence id -> reason
	rescheduled map[string]time.Time // occurrence id -> new start
}

func NewMemory() *Memory {
	return &Memory{
		clock:       time.Now,
		employees:   make(map[string]*Employee),
		byPhone:     make(map[string]string),
		byPin:       make(map[string]string),
		jobs:        make(map[string]JobTemplate),
		patients:    make(map[string]Patient),
		authorized:  make(map[string]map[string]bool),
		occurrences: make(map[string][]Occurrence),
		released:    make(map[string]string),
		rescheduled: make(map[string]time.Time),
	}
}

// SetClock overrides the time source used to decide which occurrences
// are still in the future.
func (m *Memory) SetClock(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn != nil {
		m.clock = fn
	}
}

func (m *Memory) AddEmployee(e Employee, pin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := e
	m.employees[e.ID] = &cp
	if e.PhoneNumber != "" {
		m.byPhone[e.PhoneNumber] = e.ID
	}
	if pin != "" {
		m.byPin[pin] = e.ID
	}
}

func (m *Memory) AddJob(j JobTemplate, p *Patient, employeeIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	if p != nil {
		m.patients[p.ID] = *p
	}
	allowed := m.authorized[j.ID]
	if allowed == nil {
		allowed = make(map[string]bool)
		m.authorized[j.ID] = allowed
	}
	for _, id := range employeeIDs {
		allowed[id] = true
	}
}

func (m *Memory) AddOccurrence(o Occurrence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occurrences[o.JobID] = append(m.occurrences[o.JobID], o)
}

func (m *Memory) AuthenticateByPhone(ctx context.Context, phone string) (*Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPhone[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return m.employeeCopy(id)
}

func (m *Memory) AuthenticateByPin(ctx context.Context, pin string) (*Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPin[pin]
	if !ok {
		return nil, ErrNotFound
	}
	return m.employeeCopy(id)
}

func (m *Memory) ListJobs(ctx context.Context, employeeID, providerID string, limit int) ([]JobTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []JobTemplate
	for id, j := range m.jobs {
		if providerID != "" && j.ProviderID != providerID {
			continue
		}
		if !m.authorized[id][employeeID] {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Code < out[k].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ValidateJobWithAuthorization(ctx context.Context, employeeID, code string) (*JobValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if !strings.EqualFold(j.Code, code) {
			continue
		}
		if !m.authorized[id][employeeID] {
			return nil, ErrDenied
		}
		v := &JobValidation{Job: j}
		if j.PatientID != "" {
			if p, ok := m.patients[j.PatientID]; ok {
				cp := p
				v.Patient = &cp
			}
		}
		return v, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) GetFutureOccurrences(ctx context.Context, jobID, employeeID string, limit int) ([]Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.authorized[jobID][employeeID] {
		return nil, ErrDenied
	}
	now := m.clock()
	var out []Occurrence
	for _, o := range m.occurrences[jobID] {
		if o.ScheduledAt.After(now) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ScheduledAt.Before(out[k].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) RescheduleOccurrence(ctx context.Context, occurrenceID string, newStart time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jobID, occs := range m.occurrences {
		for i, o := range occs {
			if o.ID == occurrenceID {
				m.occurrences[jobID][i].ScheduledAt = newStart
				m.rescheduled[occurrenceID] = newStart
				return nil
			}
		}
	}
	return ErrNotFound
}

func (m *Memory) LeaveJobOpen(ctx context.Context, occurrenceID, employeeID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jobID, occs := range m.occurrences {
		for i, o := range occs {
			if o.ID == occurrenceID {
				m.occurrences[jobID] = append(occs[:i], occs[i+1:]...)
				m.released[occurrenceID] = reason
				return nil
			}
		}
	}
	return ErrNotFound
}

// Rescheduled reports the committed new start for an occurrence, if any.
func (m *Memory) Rescheduled(occurrenceID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rescheduled[occurrenceID]
	return t, ok
}

// ReleaseReason reports the recorded reason for a released occurrence, if any.
func (m *Memory) ReleaseReason(occurrenceID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.released[occurrenceID]
	return r, ok
}

func (m *Memory) employeeCopy(id string) (*Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	cp.Providers = append([]Provider(nil), e.Providers...)
	return &cp, nil
}
