package service

import (
	"context"
	"sync"
	"time"

	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/events"
	"github.com/vnoc/incident-tracker/internal/observability"
	"github.com/vnoc/incident-tracker/internal/repository"
)

var fixedNow = time.Date(2024, 3, 15, 12, 30, 45, 123000000, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type harness struct {
	memory   *repository.MemoryStore
	deps     Dependencies
	recorder *recorder
}

func newHarness(tickets []domain.Ticket) *harness {
	memory := repository.NewMemoryStore(tickets)
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := &recorder{}
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, rec.handle)
	}
	return &harness{
		memory:   memory,
		recorder: rec,
		deps: Dependencies{
			Store:      memory.Store(),
			Dispatcher: dispatcher,
			Metrics:    observability.NewMetrics(),
			Clock:      func() time.Time { return fixedNow },
		},
	}
}

func ticket(tt, status, severity string, openedAgo time.Duration) domain.Ticket {
	t := domain.Ticket{
		TTNumber: tt,
		Status:   null.NewString(status, status != ""),
		Severity: null.NewString(severity, severity != ""),
	}
	if openedAgo >= 0 {
		t.OpenTime = null.TimeFrom(fixedNow.Add(-openedAgo))
	}
	return t
}

func numbers(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i := range tickets {
		out[i] = tickets[i].TTNumber
	}
	return out
}
