package memstore

import (
	"context"
	"slices"
	"sort"

	"events-service/internal/domain"
)

type registrationRepo struct{ h *handle }

func (r *registrationRepo) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	defer r.h.enter()()
	n := 0
	for _, reg := range r.h.state().individuals {
		if !reg.IsDeleted && reg.UserID == userID && reg.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (r *registrationRepo) CountActiveByTempleEvent(ctx context.Context, templeID, eventID int64) (int, error) {
	defer r.h.enter()()
	st := r.h.state()
	n := 0
	for _, reg := range st.individuals {
		if reg.IsDeleted || reg.EventID != eventID || !reg.Status.Active() {
			continue
		}
		if owner, ok := st.profiles[reg.UserID]; ok && owner.TempleID == templeID {
			n++
		}
	}
	return n, nil
}

func (r *registrationRepo) IndividualExists(ctx context.Context, userID, eventID int64) (bool, error) {
	defer r.h.enter()()
	return r.findIndividual(userID, eventID), nil
}

func (r *registrationRepo) findIndividual(userID, eventID int64) bool {
	for _, reg := range r.h.state().individuals {
		if !reg.IsDeleted && reg.UserID == userID && reg.EventID == eventID {
			return true
		}
	}
	return false
}

func (r *registrationRepo) CreateIndividual(ctx context.Context, reg *domain.IndividualRegistration) error {
	defer r.h.enter()()
	if r.findIndividual(reg.UserID, reg.EventID) {
		return domain.ErrDuplicateRegistration
	}
	st := r.h.state()
	now := r.h.db.now()
	reg.ID = st.nextID("individual_registrations")
	reg.CreatedAt, reg.UpdatedAt = now, now
	if owner, ok := st.profiles[reg.UserID]; ok {
		reg.TempleID = owner.TempleID
	}
	st.individuals[reg.ID] = stripIndividual(*reg)
	return nil
}

func (r *registrationRepo) GetIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error) {
	defer r.h.enter()()
	reg, ok := r.h.state().individuals[id]
	if !ok || reg.IsDeleted {
		return nil, domain.NotFound("registration", id)
	}
	return r.hydrateIndividual(reg), nil
}

func (r *registrationRepo) LockIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error) {
	return r.GetIndividual(ctx, id)
}

func (r *registrationRepo) UpdateIndividual(ctx context.Context, reg *domain.IndividualRegistration) error {
	defer r.h.enter()()
	st := r.h.state()
	if _, ok := st.individuals[reg.ID]; !ok {
		return domain.NotFound("registration", reg.ID)
	}
	reg.UpdatedAt = r.h.db.now()
	st.individuals[reg.ID] = stripIndividual(*reg)
	return nil
}

func (r *registrationRepo) ListIndividualByUser(ctx context.Context, userID int64) ([]*domain.IndividualRegistration, error) {
	defer r.h.enter()()
	var out []*domain.IndividualRegistration
	for _, reg := range r.h.state().individuals {
		if !reg.IsDeleted && reg.UserID == userID {
			out = append(out, r.hydrateIndividual(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *registrationRepo) ListIndividualByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.IndividualRegistration, error) {
	defer r.h.enter()()
	st := r.h.state()
	var out []*domain.IndividualRegistration
	for _, reg := range st.individuals {
		if reg.IsDeleted || !matches(f, reg.EventID, reg.Status) {
			continue
		}
		if owner, ok := st.profiles[reg.UserID]; !ok || owner.TempleID != templeID {
			continue
		}
		out = append(out, r.hydrateIndividual(reg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *registrationRepo) TeamExists(ctx context.Context, templeID, eventID int64) (bool, error) {
	defer r.h.enter()()
	return r.findTeam(templeID, eventID), nil
}

func (r *registrationRepo) findTeam(templeID, eventID int64) bool {
	for _, reg := range r.h.state().teams {
		if !reg.IsDeleted && reg.TempleID == templeID && reg.EventID == eventID {
			return true
		}
	}
	return false
}

func (r *registrationRepo) CreateTeam(ctx context.Context, reg *domain.TeamRegistration) error {
	defer r.h.enter()()
	if r.findTeam(reg.TempleID, reg.EventID) {
		return domain.ErrDuplicateTeamRegistration
	}
	st := r.h.state()
	now := r.h.db.now()
	reg.ID = st.nextID("team_registrations")
	reg.CreatedAt, reg.UpdatedAt = now, now
	st.teams[reg.ID] = stripTeam(*reg)
	return nil
}

func (r *registrationRepo) GetTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error) {
	defer r.h.enter()()
	reg, ok := r.h.state().teams[id]
	if !ok || reg.IsDeleted {
		return nil, domain.NotFound("team_registration", id)
	}
	return r.hydrateTeam(reg), nil
}

func (r *registrationRepo) LockTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error) {
	return r.GetTeam(ctx, id)
}

func (r *registrationRepo) UpdateTeam(ctx context.Context, reg *domain.TeamRegistration) error {
	defer r.h.enter()()
	st := r.h.state()
	if _, ok := st.teams[reg.ID]; !ok {
		return domain.NotFound("team_registration", reg.ID)
	}
	reg.UpdatedAt = r.h.db.now()
	st.teams[reg.ID] = stripTeam(*reg)
	return nil
}

func (r *registrationRepo) ListTeamByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.TeamRegistration, error) {
	defer r.h.enter()()
	var out []*domain.TeamRegistration
	for _, reg := range r.h.state().teams {
		if reg.IsDeleted || reg.TempleID != templeID || !matches(f, reg.EventID, reg.Status) {
			continue
		}
		out = append(out, r.hydrateTeam(reg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *registrationRepo) hydrateIndividual(reg domain.IndividualRegistration) *domain.IndividualRegistration {
	st := r.h.state()
	if owner, ok := st.profiles[reg.UserID]; ok {
		reg.TempleID = owner.TempleID
	}
	reg.Result = r.result(reg.EventResultID)
	return &reg
}

func (r *registrationRepo) hydrateTeam(reg domain.TeamRegistration) *domain.TeamRegistration {
	reg.MemberIDs = slices.Clone(reg.MemberIDs)
	reg.Result = r.result(reg.EventResultID)
	return &reg
}

func (r *registrationRepo) result(id *int64) *domain.EventResult {
	if id == nil {
		return nil
	}
	if res, ok := r.h.state().results[*id]; ok {
		return &res
	}
	return nil
}

func matches(f domain.RegistrationFilter, eventID int64, status domain.RegistrationStatus) bool {
	if f.EventID != nil && *f.EventID != eventID {
		return false
	}
	if f.Status != nil && *f.Status != status {
		return false
	}
	return true
}

func stripIndividual(reg domain.IndividualRegistration) domain.IndividualRegistration {
	reg.Result = nil
	if reg.EventResultID != nil {
		id := *reg.EventResultID
		reg.EventResultID = &id
	}
	return reg
}

func stripTeam(reg domain.TeamRegistration) domain.TeamRegistration {
	reg.Result = nil
	reg.MemberIDs = slices.Clone(reg.MemberIDs)
	if reg.EventResultID != nil {
		id := *reg.EventResultID
		reg.EventResultID = &id
	}
	return reg
}
