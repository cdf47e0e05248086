// Package memstore is an in-process repository.Database. A single mutex
// serializes every transaction, which gives the same admission guarantees as
// the row locks taken by the postgres store.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"events-service/internal/domain"
	"events-service/internal/repository"
)

type state struct {
	temples     map[int64]domain.Temple
	profiles    map[int64]domain.Profile
	eventTypes  map[int64]domain.EventType
	categories  map[int64]domain.AgeCategory
	events      map[int64]domain.Event
	results     map[int64]domain.EventResult
	individuals map[int64]domain.IndividualRegistration
	teams       map[int64]domain.TeamRegistration
	audit       []domain.AuditLog
	seq         map[string]int64
}

func newState() *state {
	return &state{
		temples:     map[int64]domain.Temple{},
		profiles:    map[int64]domain.Profile{},
		eventTypes:  map[int64]domain.EventType{},
		categories:  map[int64]domain.AgeCategory{},
		events:      map[int64]domain.Event{},
		results:     map[int64]domain.EventResult{},
		individuals: map[int64]domain.IndividualRegistration{},
		teams:       map[int64]domain.TeamRegistration{},
		seq:         map[string]int64{},
	}
}

// snapshot copies the maps. Stored values are never mutated in place, so a
// shallow copy is enough to roll back.
func (s *state) snapshot() *state {
	return &state{
		temples:     maps.Clone(s.temples),
		profiles:    maps.Clone(s.profiles),
		eventTypes:  maps.Clone(s.eventTypes),
		categories:  maps.Clone(s.categories),
		events:      maps.Clone(s.events),
		results:     maps.Clone(s.results),
		individuals: maps.Clone(s.individuals),
		teams:       maps.Clone(s.teams),
		audit:       slices.Clone(s.audit),
		seq:         maps.Clone(s.seq),
	}
}

func (s *state) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// claimID keeps the sequence ahead of explicitly supplied ids.
func (s *state) claimID(table string, id int64) int64 {
	if id == 0 {
		return s.nextID(table)
	}
	if id > s.seq[table] {
		s.seq[table] = id
	}
	return id
}

type DB struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Database = (*DB)(nil)

func New() *DB {
	return &DB{st: newState(), now: time.Now}
}

// handle is shared by every repository of one Store view. Outside a
// transaction each call takes the mutex itself.
type handle struct {
	db   *DB
	inTx bool
}

func (h *handle) enter() func() {
	if h.inTx {
		return func() {}
	}
	h.db.mu.Lock()
	return h.db.mu.Unlock
}

func (h *handle) state() *state { return h.db.st }

type store struct{ h *handle }

func (s store) Temples() repository.TempleRepository             { return &templeRepo{s.h} }
func (s store) Profiles() repository.ProfileRepository           { return &profileRepo{s.h} }
func (s store) Events() repository.EventRepository               { return &eventRepo{s.h} }
func (s store) Results() repository.EventResultRepository        { return &resultRepo{s.h} }
func (s store) Registrations() repository.RegistrationRepository { return &registrationRepo{s.h} }
func (s store) Audit() repository.AuditRepository                { return &auditRepo{s.h} }

func (db *DB) plain() store { return store{h: &handle{db: db}} }

func (db *DB) Temples() repository.TempleRepository             { return db.plain().Temples() }
func (db *DB) Profiles() repository.ProfileRepository           { return db.plain().Profiles() }
func (db *DB) Events() repository.EventRepository               { return db.plain().Events() }
func (db *DB) Results() repository.EventResultRepository        { return db.plain().Results() }
func (db *DB) Registrations() repository.RegistrationRepository { return db.plain().Registrations() }
func (db *DB) Audit() repository.AuditRepository                { return db.plain().Audit() }

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	before := db.st.snapshot()
	if err := fn(ctx, store{h: &handle{db: db, inTx: true}}); err != nil {
		db.st = before
		return err
	}
	return nil
}

func (db *DB) Close() {}
