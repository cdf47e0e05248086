package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"events-service/internal/config"
	"events-service/internal/domain"
	"events-service/internal/handler"
	"events-service/internal/repository/memstore"
	"events-service/internal/usecase"
	"events-service/pkg/middleware"
)

// stubResolver treats the token as a key into a fixed set of principals.
type stubResolver map[string]domain.Principal

func (s stubResolver) Resolve(token string) (domain.Principal, error) {
	p, ok := s[token]
	if !ok {
		return domain.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	mux http.Handler
}

func ptr(v int64) *int64 { return &v }

func setupServer(t *testing.T) *testServer {
	t.Helper()
	return setupServerWith(t, Options{})
}

func setupServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	require.NoError(t, db.Temples().Upsert(ctx, &domain.Temple{ID: 1, Name: "North", Code: "N"}))
	require.NoError(t, db.Temples().Upsert(ctx, &domain.Temple{ID: 2, Name: "South", Code: "S"}))
	ev := db.Events()
	require.NoError(t, ev.UpsertEventType(ctx, &domain.EventType{ID: 1, Name: "Running", Kind: domain.EventKindIndividual, ParticipantCount: 1}))
	require.NoError(t, ev.UpsertEventType(ctx, &domain.EventType{ID: 2, Name: "Relay", Kind: domain.EventKindTeam, ParticipantCount: 4}))
	require.NoError(t, ev.UpsertAgeCategory(ctx, &domain.AgeCategory{ID: 1, Name: "Open", FromAge: 0, ToAge: 120}))
	require.NoError(t, ev.Upsert(ctx, &domain.Event{ID: 1, EventTypeID: 1, AgeCategoryID: 1, Gender: domain.GenderAll}))
	require.NoError(t, ev.Upsert(ctx, &domain.Event{ID: 2, EventTypeID: 2, AgeCategoryID: 1, Gender: domain.GenderAll}))
	require.NoError(t, db.Results().Upsert(ctx, &domain.EventResult{EventTypeID: 1, Rank: domain.RankFirst, Points: 5}))

	dob := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []domain.Profile{
		{ID: 10, Name: "runner", Gender: domain.GenderMale, DateOfBirth: dob, TempleID: 1, Role: domain.RoleParticipant},
		{ID: 11, Name: "mate", Gender: domain.GenderMale, DateOfBirth: dob, TempleID: 1, Role: domain.RoleParticipant},
		{ID: 12, Name: "visitor", Gender: domain.GenderMale, DateOfBirth: dob, TempleID: 2, Role: domain.RoleParticipant},
		{ID: 20, Name: "north admin", Gender: domain.GenderFemale, DateOfBirth: dob, TempleID: 1, Role: domain.RoleTempleAdmin},
		{ID: 21, Name: "south admin", Gender: domain.GenderFemale, DateOfBirth: dob, TempleID: 2, Role: domain.RoleTempleAdmin},
		{ID: 30, Name: "staff", Gender: domain.GenderFemale, DateOfBirth: dob, TempleID: 1, Role: domain.RoleStaff},
		{ID: 40, Name: "root", Gender: domain.GenderMale, DateOfBirth: dob, TempleID: 2, Role: domain.RoleSuperUser},
	} {
		require.NoError(t, db.Profiles().Upsert(ctx, &p))
	}

	resolver := stubResolver{
		"runner":      {ID: 10, Role: domain.RoleParticipant, TempleID: ptr(1)},
		"visitor":     {ID: 12, Role: domain.RoleParticipant, TempleID: ptr(2)},
		"north-admin": {ID: 20, Role: domain.RoleTempleAdmin, TempleID: ptr(1)},
		"south-admin": {ID: 21, Role: domain.RoleTempleAdmin, TempleID: ptr(2)},
		"staff":       {ID: 30, Role: domain.RoleStaff, TempleID: ptr(1)},
		"root":        {ID: 40, Role: domain.RoleSuperUser, TempleID: ptr(2)},
	}

	logger := zap.NewNop()
	uc := usecase.NewRegistrationUsecase(db, config.DefaultLimits(), logger)
	h := handler.NewEventsHandler(uc, logger)
	auth := middleware.NewAuthMiddleware(resolver, logger)
	mux := SetupRoutes(chi.NewRouter(), h, auth, opts)
	return &testServer{t: t, mux: mux}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/events/svc"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestHealthIsPublic(t *testing.T) {
	s := setupServer(t)
	code, _ := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestAuthGates(t *testing.T) {
	s := setupServer(t)

	code, _ := s.do(http.MethodGet, "/catalog/events", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/registrations/team", "runner", map[string]interface{}{"event_id": 2, "member_ids": []int64{10}})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/admin/audit", "north-admin", nil)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/results/individual/1", "north-admin", map[string]string{"rank": "FIRST"})
	require.Equal(t, http.StatusForbidden, code)
}

func TestRegisterIndividualFlow(t *testing.T) {
	s := setupServer(t)

	code, env := s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 1})
	require.Equal(t, http.StatusCreated, code)
	var reg domain.IndividualRegistration
	decodeData(t, env, &reg)
	require.Equal(t, domain.StatusAccepted, reg.Status)
	require.Equal(t, int64(10), reg.UserID)

	code, env = s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 1})
	require.Equal(t, http.StatusConflict, code)
	var body struct {
		Kind domain.ErrorKind `json:"kind"`
	}
	decodeData(t, env, &body)
	require.Equal(t, domain.KindDuplicateRegistration, body.Kind)

	code, _ = s.do(http.MethodGet, "/registrations/individual/1", "visitor", nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPut, "/results/individual/1", "staff", map[string]string{"rank": "first"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/registrations/individual/1", "runner", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &reg)
	require.NotNil(t, reg.Result)
	require.Equal(t, 5, reg.Result.Points)

	code, env = s.do(http.MethodDelete, "/registrations/individual/1", "runner", nil)
	require.Equal(t, http.StatusConflict, code)
	decodeData(t, env, &body)
	require.Equal(t, domain.KindResultRecorded, body.Kind)

	code, _ = s.do(http.MethodPut, "/results/individual/1", "staff", map[string]string{"rank": "CLEAR"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, "/registrations/individual/1", "runner", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/registrations/mine", "runner", nil)
	require.Equal(t, http.StatusOK, code)
	var mine []domain.IndividualRegistration
	decodeData(t, env, &mine)
	require.Empty(t, mine)
}

func TestRegisterIndividual_Validation(t *testing.T) {
	s := setupServer(t)

	code, env := s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"user_id": -1})
	require.Equal(t, http.StatusBadRequest, code)
	var body struct {
		Kind   domain.ErrorKind    `json:"kind"`
		Fields []domain.FieldError `json:"fields"`
	}
	decodeData(t, env, &body)
	require.Equal(t, domain.KindValidation, body.Kind)
	require.Len(t, body.Fields, 2)

	code, _ = s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 99})
	require.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 2})
	require.Equal(t, http.StatusConflict, code)
	decodeData(t, env, &body)
	require.Equal(t, domain.KindEventKindMismatch, body.Kind)
}

func TestTeamFlow(t *testing.T) {
	s := setupServer(t)

	code, env := s.do(http.MethodPost, "/registrations/team", "north-admin",
		map[string]interface{}{"event_id": 2, "member_ids": []int64{10, 12}})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	var body struct {
		Kind domain.ErrorKind `json:"kind"`
		IDs  []int64          `json:"ids"`
	}
	decodeData(t, env, &body)
	require.Equal(t, domain.KindCrossTempleMembership, body.Kind)
	require.Equal(t, []int64{12}, body.IDs)

	code, _ = s.do(http.MethodPost, "/registrations/team", "north-admin",
		map[string]interface{}{"event_id": 2, "temple_id": 2, "member_ids": []int64{12}})
	require.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/registrations/team", "north-admin",
		map[string]interface{}{"event_id": 2, "member_ids": []int64{10}})
	require.Equal(t, http.StatusCreated, code)
	var team domain.TeamRegistration
	decodeData(t, env, &team)
	require.Equal(t, int64(1), team.TempleID)

	code, env = s.do(http.MethodPut, "/registrations/team/1/members", "south-admin",
		map[string]interface{}{"member_ids": []int64{10, 11}})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "not allowed", env.Message)

	code, env = s.do(http.MethodPut, "/registrations/team/1/members", "north-admin",
		map[string]interface{}{"member_ids": []int64{11, 10}})
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &team)
	require.Equal(t, []int64{11, 10}, team.MemberIDs)

	code, _ = s.do(http.MethodPost, "/registrations/team", "root",
		map[string]interface{}{"event_id": 2, "member_ids": []int64{12}})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, "/registrations/team", "north-admin",
		map[string]interface{}{"event_id": 1, "member_ids": []int64{10}})
	require.Equal(t, http.StatusConflict, code)
	decodeData(t, env, &body)
	require.Equal(t, domain.KindEventKindMismatch, body.Kind)
}

func TestGetTeamRegistration_Visibility(t *testing.T) {
	s := setupServer(t)
	code, _ := s.do(http.MethodPost, "/registrations/team", "north-admin",
		map[string]interface{}{"event_id": 2, "member_ids": []int64{10}})
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		token string
		want  int
	}{
		{"runner", http.StatusOK},
		{"staff", http.StatusOK},
		{"north-admin", http.StatusOK},
		{"root", http.StatusOK},
		{"visitor", http.StatusNotFound},
		{"south-admin", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			code, _ := s.do(http.MethodGet, "/registrations/team/1", tt.token, nil)
			require.Equal(t, tt.want, code)
		})
	}
}

type keyCounter struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (c *keyCounter) IncrWithExpire(_ context.Context, _, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key]++
	return c.keys[key], nil
}

func (c *keyCounter) GetTTL(context.Context, string, string) (time.Duration, error) {
	return time.Minute, nil
}

func TestRateLimit_CountsAuthenticatedUsers(t *testing.T) {
	counter := &keyCounter{keys: map[string]int64{}}
	s := setupServerWith(t, Options{
		RateLimit: middleware.RateLimiter(counter, 2, time.Minute, "rl", zap.NewNop()),
	})

	send := func(token, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/events/svc/registrations/mine", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		s.mux.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("runner", "1.1.1.1"))
	require.Equal(t, http.StatusOK, send("runner", "2.2.2.2"))
	require.Equal(t, http.StatusTooManyRequests, send("runner", "3.3.3.3"))
	require.Equal(t, http.StatusOK, send("visitor", "1.1.1.1"))

	require.Equal(t, map[string]int64{"uid:10": 3, "uid:12": 1}, counter.keys)

	code, _ := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestStatusPaths(t *testing.T) {
	s := setupServer(t)
	code, _ := s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 1})
	require.Equal(t, http.StatusCreated, code)

	// temple admins speak the legacy vocabulary
	code, _ = s.do(http.MethodPatch, "/temple/registrations/individual/1/status", "north-admin", map[string]string{"status": "DECLINED"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(http.MethodPatch, "/temple/registrations/individual/1/status", "north-admin", map[string]string{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, code)
	var change usecase.StatusChange
	decodeData(t, env, &change)
	require.Equal(t, domain.StatusAccepted, change.Previous)
	require.Equal(t, domain.StatusDeclined, change.Individual.Status)

	code, _ = s.do(http.MethodPatch, "/temple/registrations/individual/1/status", "south-admin", map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPatch, "/temple/registrations/individual/1/status", "root", map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPatch, "/admin/registrations/individual/1/status", "root", map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPatch, "/admin/registrations/individual/1/status", "root", map[string]string{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPatch, "/admin/registrations/bogus/1/status", "root", map[string]string{"status": "ACCEPTED"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/admin/audit?affected_table=individual_registrations", "root", nil)
	require.Equal(t, http.StatusOK, code)
	var logs []domain.AuditLog
	decodeData(t, env, &logs)
	require.Len(t, logs, 3)
	require.Equal(t, domain.ActionUpdateStatus, logs[0].ActionName)
}

func TestCatalog(t *testing.T) {
	s := setupServer(t)

	code, env := s.do(http.MethodGet, "/catalog/eligible", "runner", nil)
	require.Equal(t, http.StatusOK, code)
	var events []domain.Event
	decodeData(t, env, &events)
	require.Len(t, events, 2)

	code, _ = s.do(http.MethodGet, "/catalog/events?gender=other", "runner", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/catalog/events/99", "runner", nil)
	require.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/catalog/event-types/1/results", "runner", nil)
	require.Equal(t, http.StatusOK, code)
	var results []domain.EventResult
	decodeData(t, env, &results)
	require.Len(t, results, 1)
}

func TestTempleRegistrations(t *testing.T) {
	s := setupServer(t)
	s.do(http.MethodPost, "/registrations/individual", "runner", map[string]int64{"event_id": 1})
	s.do(http.MethodPost, "/registrations/individual", "visitor", map[string]int64{"event_id": 1})

	code, env := s.do(http.MethodGet, "/temple/registrations?status=accepted", "north-admin", nil)
	require.Equal(t, http.StatusOK, code)
	var regs domain.TempleRegistrations
	decodeData(t, env, &regs)
	require.Equal(t, int64(1), regs.TempleID)
	require.Len(t, regs.Individuals, 1)

	code, _ = s.do(http.MethodGet, "/temple/registrations", "root", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/temple/registrations?temple_id=2", "root", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &regs)
	require.Len(t, regs.Individuals, 1)
	require.Equal(t, int64(12), regs.Individuals[0].UserID)
}
