package memstore

import (
	"context"
	"slices"
	"sort"

	"events-service/internal/domain"
)

type templeRepo struct{ h *handle }

func (r *templeRepo) GetByID(ctx context.Context, id int64) (*domain.Temple, error) {
	defer r.h.enter()()
	t, ok := r.h.state().temples[id]
	if !ok {
		return nil, domain.NotFound("temple", id)
	}
	return &t, nil
}

func (r *templeRepo) List(ctx context.Context) ([]*domain.Temple, error) {
	defer r.h.enter()()
	out := make([]*domain.Temple, 0, len(r.h.state().temples))
	for _, t := range r.h.state().temples {
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *templeRepo) Upsert(ctx context.Context, t *domain.Temple) error {
	defer r.h.enter()()
	st := r.h.state()
	t.ID = st.claimID("temples", t.ID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.h.db.now()
	}
	st.temples[t.ID] = *t
	return nil
}

type profileRepo struct{ h *handle }

func (r *profileRepo) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	defer r.h.enter()()
	p, ok := r.h.state().profiles[id]
	if !ok {
		return nil, domain.ErrUserNotFound.With("profile", id)
	}
	return &p, nil
}

// LockByID is GetByID: the transaction already holds the store mutex.
func (r *profileRepo) LockByID(ctx context.Context, id int64) (*domain.Profile, error) {
	return r.GetByID(ctx, id)
}

func (r *profileRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Profile, error) {
	defer r.h.enter()()
	out := make(map[int64]*domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.h.state().profiles[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	defer r.h.enter()()
	st := r.h.state()
	p.ID = st.claimID("profiles", p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.h.db.now()
	}
	st.profiles[p.ID] = *p
	return nil
}

type eventRepo struct{ h *handle }

// hydrate attaches type and category. Caller holds the lock.
func (r *eventRepo) hydrate(e domain.Event) *domain.Event {
	st := r.h.state()
	if et, ok := st.eventTypes[e.EventTypeID]; ok {
		e.EventType = &et
	}
	if c, ok := st.categories[e.AgeCategoryID]; ok {
		e.AgeCategory = &c
	}
	return &e
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	defer r.h.enter()()
	e, ok := r.h.state().events[id]
	if !ok {
		return nil, domain.ErrEventNotFound.With("event", id)
	}
	return r.hydrate(e), nil
}

func (r *eventRepo) LockByID(ctx context.Context, id int64) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *eventRepo) List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	defer r.h.enter()()
	var out []*domain.Event
	for _, e := range r.h.state().events {
		if e.Closed && !f.IncludeClosed {
			continue
		}
		if f.EventTypeID != nil && e.EventTypeID != *f.EventTypeID {
			continue
		}
		if f.AgeCategoryID != nil && e.AgeCategoryID != *f.AgeCategoryID {
			continue
		}
		if f.Gender != nil && e.Gender != *f.Gender {
			continue
		}
		out = append(out, r.hydrate(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *eventRepo) UpsertEventType(ctx context.Context, et *domain.EventType) error {
	defer r.h.enter()()
	st := r.h.state()
	et.ID = st.claimID("event_types", et.ID)
	st.eventTypes[et.ID] = *et
	return nil
}

func (r *eventRepo) UpsertAgeCategory(ctx context.Context, c *domain.AgeCategory) error {
	defer r.h.enter()()
	st := r.h.state()
	c.ID = st.claimID("age_categories", c.ID)
	st.categories[c.ID] = *c
	return nil
}

func (r *eventRepo) Upsert(ctx context.Context, e *domain.Event) error {
	defer r.h.enter()()
	st := r.h.state()
	e.ID = st.claimID("events", e.ID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.h.db.now()
	}
	stored := *e
	stored.EventType, stored.AgeCategory = nil, nil
	st.events[e.ID] = stored
	return nil
}

type resultRepo struct{ h *handle }

func (r *resultRepo) GetByID(ctx context.Context, id int64) (*domain.EventResult, error) {
	defer r.h.enter()()
	res, ok := r.h.state().results[id]
	if !ok {
		return nil, domain.NotFound("event_result", id)
	}
	return &res, nil
}

func (r *resultRepo) GetByTypeAndRank(ctx context.Context, eventTypeID int64, rank domain.Rank) (*domain.EventResult, error) {
	defer r.h.enter()()
	for _, res := range r.h.state().results {
		if res.EventTypeID == eventTypeID && res.Rank == rank {
			return &res, nil
		}
	}
	return nil, domain.ErrResultNotConfigured
}

func (r *resultRepo) ListByEventType(ctx context.Context, eventTypeID int64) ([]*domain.EventResult, error) {
	defer r.h.enter()()
	var out []*domain.EventResult
	for _, res := range r.h.state().results {
		if res.EventTypeID == eventTypeID {
			out = append(out, &res)
		}
	}
	slices.SortFunc(out, func(a, b *domain.EventResult) int { return int(a.ID - b.ID) })
	return out, nil
}

// Upsert keys on (event_type_id, rank) like the unique index in postgres.
func (r *resultRepo) Upsert(ctx context.Context, res *domain.EventResult) error {
	defer r.h.enter()()
	st := r.h.state()
	for id, existing := range st.results {
		if existing.EventTypeID == res.EventTypeID && existing.Rank == res.Rank {
			res.ID = id
			st.results[id] = *res
			return nil
		}
	}
	res.ID = st.claimID("event_results", res.ID)
	st.results[res.ID] = *res
	return nil
}
