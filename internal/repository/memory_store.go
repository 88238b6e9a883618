package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/query"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// MemoryStore is an in-process backend owning a mutable copy of its seed.
// Instances are independent; Reset restores the seed and clears the logs.
type MemoryStore struct {
	mu          sync.RWMutex
	seed        []domain.Ticket
	tickets     map[string]domain.Ticket
	activities  []domain.Activity
	attachments []domain.Attachment
	activitySeq int64
	uploadSeq   int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemoryStore builds a store seeded with tickets.
func NewMemoryStore(seed []domain.Ticket) *MemoryStore {
	s := &MemoryStore{locks: map[string]*sync.Mutex{}}
	s.replaceSeed(seed)
	return s
}

// Store exposes the memory backend through the repository contracts.
func (s *MemoryStore) Store() *Store {
	return &Store{
		Tickets:     memoryTickets{s},
		Activities:  memoryActivities{s},
		Attachments: memoryAttachments{s},
	}
}

// Reset restores the seeded tickets and drops every activity and attachment.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = make(map[string]domain.Ticket, len(s.seed))
	for _, t := range s.seed {
		s.tickets[t.TTNumber] = t
	}
	s.activities = nil
	s.attachments = nil
	s.activitySeq = 0
	s.uploadSeq = 0
}

func (s *MemoryStore) replaceSeed(seed []domain.Ticket) {
	s.mu.Lock()
	s.seed = make([]domain.Ticket, len(seed))
	for i, t := range seed {
		s.seed[i] = normalizeTicket(t)
	}
	s.mu.Unlock()
	s.Reset()
}

func (s *MemoryStore) snapshot() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out
}

func (s *MemoryStore) ticketLock(ttNumber string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[ttNumber]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[ttNumber] = lock
	}
	return lock
}

// normalizeTicket drops sub-microsecond precision the way PostgreSQL does.
func normalizeTicket(t domain.Ticket) domain.Ticket {
	t.OpenTime = truncateNull(t.OpenTime)
	t.ClearedDate = truncateNull(t.ClearedDate)
	t.ProcessTime = truncateNull(t.ProcessTime)
	t.LastStatusUpdate = truncateNull(t.LastStatusUpdate)
	return t
}

func truncateNull(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(query.Truncate(t.Time))
}

type memoryTickets struct{ s *MemoryStore }

func (m memoryTickets) GetByTTNumber(_ context.Context, ttNumber string) (*domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	t, ok := m.s.tickets[ttNumber]
	if !ok {
		return nil, ticketNotFound(ttNumber)
	}
	return &t, nil
}

func (m memoryTickets) Query(_ context.Context, plan query.Plan) ([]domain.Ticket, int, error) {
	page, total := query.Apply(m.s.snapshot(), plan)
	return page, total, nil
}

func (m memoryTickets) Count(_ context.Context, plan query.Plan) (int, error) {
	total := 0
	for _, t := range m.s.snapshot() {
		if plan.Matches(&t) {
			total++
		}
	}
	return total, nil
}

func (m memoryTickets) Mutate(_ context.Context, ttNumber string, fn MutationFunc) (*domain.Ticket, *domain.Activity, error) {
	lock := m.s.ticketLock(ttNumber)
	lock.Lock()
	defer lock.Unlock()

	m.s.mu.RLock()
	current, ok := m.s.tickets[ttNumber]
	m.s.mu.RUnlock()
	if !ok {
		return nil, nil, ticketNotFound(ttNumber)
	}

	next, activity, err := fn(current)
	if err != nil {
		return nil, nil, err
	}
	next = normalizeTicket(next)
	next.TTNumber = ttNumber
	activity.TTNumber = ttNumber
	activity.CreatedAt = query.Truncate(activity.CreatedAt)

	m.s.mu.Lock()
	m.s.activitySeq++
	activity.ID = m.s.activitySeq
	m.s.tickets[ttNumber] = next
	m.s.activities = append(m.s.activities, activity)
	m.s.mu.Unlock()

	return &next, &activity, nil
}

// Seed replaces the snapshot; Reset returns to these tickets afterwards.
func (m memoryTickets) Seed(_ context.Context, tickets []domain.Ticket) (int, error) {
	m.s.replaceSeed(tickets)
	return len(tickets), nil
}

type memoryActivities struct{ s *MemoryStore }

func (m memoryActivities) ListByTicket(_ context.Context, ttNumber string) ([]domain.TimelineEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	byID := make(map[int64]domain.Attachment, len(m.s.attachments))
	for _, a := range m.s.attachments {
		byID[a.ID] = a
	}

	result := []domain.TimelineEntry{}
	for _, act := range m.s.activities {
		if act.TTNumber != ttNumber {
			continue
		}
		entry := domain.TimelineEntry{Activity: act}
		if act.AttachmentID.Valid {
			if a, ok := byID[act.AttachmentID.Int64]; ok {
				entry.AttachmentFilename = null.StringFrom(a.OriginalFilename)
				entry.AttachmentPath = null.StringFrom(a.FilePath)
			}
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

type memoryAttachments struct{ s *MemoryStore }

func (m memoryAttachments) Create(_ context.Context, attachment *domain.Attachment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.tickets[attachment.TTNumber]; !ok {
		return ticketNotFound(attachment.TTNumber)
	}
	m.s.uploadSeq++
	attachment.ID = m.s.uploadSeq
	attachment.UploadedAt = query.Truncate(attachment.UploadedAt)
	m.s.attachments = append(m.s.attachments, *attachment)
	return nil
}

func (m memoryAttachments) GetByID(_ context.Context, id int64) (*domain.Attachment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, a := range m.s.attachments {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": id})
}

func (m memoryAttachments) ListByTicket(_ context.Context, ttNumber string) ([]domain.Attachment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	result := []domain.Attachment{}
	for _, a := range m.s.attachments {
		if a.TTNumber == ttNumber {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}
