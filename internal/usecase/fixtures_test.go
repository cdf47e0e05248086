package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"events-service/internal/config"
	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository/memstore"
)

const (
	templeNorth int64 = 1
	templeSouth int64 = 2

	typeRunning int64 = 1 // individual, no THIRD seeded
	typeRelay   int64 = 2 // team

	relayEvent  int64 = 20
	closedEvent int64 = 30
)

var fixedNow = time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.RegistrationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev *events.RegistrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.EventType)
	}
	return out
}

type fixture struct {
	db        *memstore.DB
	uc        *RegistrationUsecase
	published *recordingPublisher
	nextID    int64
}

// setupFixture seeds two temples, running events 1..6 and a relay event.
// Running awards FIRST=5 and SECOND=3; relay FIRST=10, SECOND=6, THIRD=4.
func setupFixture(t testingT) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	require.NoError(t, db.Temples().Upsert(ctx, &domain.Temple{ID: templeNorth, Name: "North", Code: "N"}))
	require.NoError(t, db.Temples().Upsert(ctx, &domain.Temple{ID: templeSouth, Name: "South", Code: "S"}))

	ev := db.Events()
	require.NoError(t, ev.UpsertEventType(ctx, &domain.EventType{ID: typeRunning, Name: "Running", Kind: domain.EventKindIndividual, ParticipantCount: 1}))
	require.NoError(t, ev.UpsertEventType(ctx, &domain.EventType{ID: typeRelay, Name: "Relay", Kind: domain.EventKindTeam, ParticipantCount: 4}))
	require.NoError(t, ev.UpsertAgeCategory(ctx, &domain.AgeCategory{ID: 1, Name: "Open", FromAge: 0, ToAge: 120}))
	require.NoError(t, ev.UpsertAgeCategory(ctx, &domain.AgeCategory{ID: 2, Name: "Under 14", FromAge: 0, ToAge: 13}))
	for id := int64(1); id <= 6; id++ {
		require.NoError(t, ev.Upsert(ctx, &domain.Event{ID: id, EventTypeID: typeRunning, AgeCategoryID: 1, Gender: domain.GenderAll}))
	}
	require.NoError(t, ev.Upsert(ctx, &domain.Event{ID: relayEvent, EventTypeID: typeRelay, AgeCategoryID: 1, Gender: domain.GenderAll}))
	require.NoError(t, ev.Upsert(ctx, &domain.Event{ID: closedEvent, EventTypeID: typeRunning, AgeCategoryID: 2, Gender: domain.GenderFemale, Closed: true}))

	for _, r := range []domain.EventResult{
		{EventTypeID: typeRunning, Rank: domain.RankFirst, Points: 5},
		{EventTypeID: typeRunning, Rank: domain.RankSecond, Points: 3},
		{EventTypeID: typeRelay, Rank: domain.RankFirst, Points: 10},
		{EventTypeID: typeRelay, Rank: domain.RankSecond, Points: 6},
		{EventTypeID: typeRelay, Rank: domain.RankThird, Points: 4},
	} {
		require.NoError(t, db.Results().Upsert(ctx, &r))
	}

	pub := &recordingPublisher{}
	uc := NewRegistrationUsecase(db, config.DefaultLimits(), zap.NewNop(),
		WithPublisher(pub),
		WithClock(func() time.Time { return fixedNow }))
	return &fixture{db: db, uc: uc, published: pub, nextID: 100}
}

func (f *fixture) profile(t testingT, templeID int64, role domain.Role) *domain.Profile {
	t.Helper()
	f.nextID++
	p := &domain.Profile{
		ID:          f.nextID,
		Name:        "member",
		Gender:      domain.GenderMale,
		DateOfBirth: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		TempleID:    templeID,
		Role:        role,
	}
	require.NoError(t, f.db.Profiles().Upsert(context.Background(), p))
	return p
}

func (f *fixture) participant(t testingT, templeID int64) *domain.Profile {
	return f.profile(t, templeID, domain.RoleParticipant)
}

func (f *fixture) register(t testingT, userID, eventID int64) *domain.IndividualRegistration {
	t.Helper()
	reg, err := f.uc.RegisterIndividual(context.Background(), userID, userID, eventID)
	require.NoError(t, err)
	return reg
}

func (f *fixture) auditFor(t testingT, table string, id int64) []*domain.AuditLog {
	t.Helper()
	logs, err := f.db.Audit().List(context.Background(), domain.AuditLogQuery{AffectedTable: &table, AffectedRecordID: &id})
	require.NoError(t, err)
	return logs
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
