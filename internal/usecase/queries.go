package usecase

import (
	"context"
	"slices"

	"events-service/internal/domain"
)

// canView: staff and super-users see everything, temple admins their own
// temple, participants only what they belong to.
func canView(p domain.Principal, templeID int64, isOwner bool) bool {
	switch p.Role {
	case domain.RoleSuperUser, domain.RoleStaff:
		return true
	case domain.RoleTempleAdmin:
		if p.TempleID != nil && *p.TempleID == templeID {
			return true
		}
	}
	return isOwner
}

// Registrations a caller may not see are reported as missing.
func (u *RegistrationUsecase) GetIndividualRegistration(ctx context.Context, p domain.Principal, id int64) (*domain.IndividualRegistration, error) {
	reg, err := u.db.Registrations().GetIndividual(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(p, reg.TempleID, reg.UserID == p.ID) {
		return nil, domain.NotFound("registration", id)
	}
	return reg, nil
}

func (u *RegistrationUsecase) GetTeamRegistration(ctx context.Context, p domain.Principal, id int64) (*domain.TeamRegistration, error) {
	reg, err := u.db.Registrations().GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(p, reg.TempleID, slices.Contains(reg.MemberIDs, p.ID)) {
		return nil, domain.NotFound("team_registration", id)
	}
	return reg, nil
}

func (u *RegistrationUsecase) ListMyRegistrations(ctx context.Context, userID int64) ([]*domain.IndividualRegistration, error) {
	return u.db.Registrations().ListIndividualByUser(ctx, userID)
}

// ListTempleRegistrations returns both kinds for one temple. Temple admins
// are always pinned to their own temple; super-users must name one.
func (u *RegistrationUsecase) ListTempleRegistrations(ctx context.Context, p domain.Principal, templeID *int64, f domain.RegistrationFilter) (*domain.TempleRegistrations, error) {
	var target int64
	switch {
	case p.Role == domain.RoleTempleAdmin && p.TempleID != nil:
		target = *p.TempleID
	case p.Role == domain.RoleSuperUser && templeID != nil:
		target = *templeID
	case p.Role == domain.RoleSuperUser:
		v := &domain.ValidationError{}
		v.Add("temple_id", "is required")
		return nil, v
	default:
		return nil, domain.ErrUnauthorized
	}

	individuals, err := u.db.Registrations().ListIndividualByTemple(ctx, target, f)
	if err != nil {
		return nil, err
	}
	teams, err := u.db.Registrations().ListTeamByTemple(ctx, target, f)
	if err != nil {
		return nil, err
	}
	return &domain.TempleRegistrations{TempleID: target, Individuals: individuals, Teams: teams}, nil
}

const maxAuditPage = 200

func (u *RegistrationUsecase) ListAuditLog(ctx context.Context, p domain.Principal, q domain.AuditLogQuery) ([]*domain.AuditLog, error) {
	if p.Role != domain.RoleSuperUser {
		return nil, domain.ErrUnauthorized
	}
	if q.Limit <= 0 || q.Limit > maxAuditPage {
		q.Limit = maxAuditPage
	}
	return u.db.Audit().List(ctx, q)
}
