package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"events-service/internal/domain"
)

type registrationRepo struct{ q querier }

const individualSelect = `
	SELECT r.id, r.user_id, r.event_id, r.status, r.event_result_id, r.is_deleted,
	       r.created_at, r.updated_at, p.temple_id,
	       er.id, er.event_type_id, er.rank, er.points
	FROM individual_registrations r
	JOIN profiles p ON p.id = r.user_id
	LEFT JOIN event_results er ON er.id = r.event_result_id`

const teamSelect = `
	SELECT r.id, r.temple_id, r.event_id, r.status, r.event_result_id, r.is_deleted,
	       r.created_at, r.updated_at,
	       ARRAY(SELECT m.profile_id FROM team_registration_members m
	             WHERE m.registration_id = r.id ORDER BY m.position),
	       er.id, er.event_type_id, er.rank, er.points
	FROM team_registrations r
	LEFT JOIN event_results er ON er.id = r.event_result_id`

// resultCols receives the nullable LEFT JOIN on event_results.
type resultCols struct {
	id          *int64
	eventTypeID *int64
	rank        *string
	points      *int
}

func (c *resultCols) dest() []any { return []any{&c.id, &c.eventTypeID, &c.rank, &c.points} }

func (c *resultCols) result() *domain.EventResult {
	if c.id == nil {
		return nil
	}
	return &domain.EventResult{ID: *c.id, EventTypeID: *c.eventTypeID, Rank: domain.Rank(*c.rank), Points: *c.points}
}

func scanIndividual(row pgx.Row) (*domain.IndividualRegistration, error) {
	var reg domain.IndividualRegistration
	var res resultCols
	dest := append([]any{
		&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.EventResultID, &reg.IsDeleted,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.TempleID,
	}, res.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	reg.Result = res.result()
	return &reg, nil
}

func scanTeam(row pgx.Row) (*domain.TeamRegistration, error) {
	var reg domain.TeamRegistration
	var res resultCols
	dest := append([]any{
		&reg.ID, &reg.TempleID, &reg.EventID, &reg.Status, &reg.EventResultID, &reg.IsDeleted,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.MemberIDs,
	}, res.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	reg.Result = res.result()
	return &reg, nil
}

func (r *registrationRepo) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM individual_registrations
		WHERE user_id = $1 AND NOT is_deleted AND status IN ('PENDING', 'ACCEPTED')
	`, userID).Scan(&n)
	return n, err
}

func (r *registrationRepo) CountActiveByTempleEvent(ctx context.Context, templeID, eventID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM individual_registrations r
		JOIN profiles p ON p.id = r.user_id
		WHERE p.temple_id = $1 AND r.event_id = $2
		  AND NOT r.is_deleted AND r.status IN ('PENDING', 'ACCEPTED')
	`, templeID, eventID).Scan(&n)
	return n, err
}

func (r *registrationRepo) IndividualExists(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM individual_registrations
		               WHERE user_id = $1 AND event_id = $2 AND NOT is_deleted)
	`, userID, eventID).Scan(&exists)
	return exists, err
}

func (r *registrationRepo) CreateIndividual(ctx context.Context, reg *domain.IndividualRegistration) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO individual_registrations (user_id, event_id, status, event_result_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at,
		          (SELECT temple_id FROM profiles WHERE id = $1)
	`, reg.UserID, reg.EventID, reg.Status, reg.EventResultID).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt, &reg.TempleID)
	if uniqueViolationOn(err, "uq_individual_registrations_user_event") {
		return domain.ErrDuplicateRegistration.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("insert individual registration: %w", err)
	}
	return nil
}

func (r *registrationRepo) GetIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error) {
	reg, err := scanIndividual(r.q.QueryRow(ctx, individualSelect+` WHERE r.id = $1 AND NOT r.is_deleted`, id))
	if err != nil {
		return nil, notFound(err, domain.NotFound("registration", id))
	}
	return reg, nil
}

func (r *registrationRepo) LockIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error) {
	reg, err := scanIndividual(r.q.QueryRow(ctx,
		individualSelect+` WHERE r.id = $1 AND NOT r.is_deleted FOR UPDATE OF r`, id))
	if err != nil {
		return nil, notFound(err, domain.NotFound("registration", id))
	}
	return reg, nil
}

func (r *registrationRepo) UpdateIndividual(ctx context.Context, reg *domain.IndividualRegistration) error {
	err := r.q.QueryRow(ctx, `
		UPDATE individual_registrations
		SET status = $2, event_result_id = $3, is_deleted = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, reg.ID, reg.Status, reg.EventResultID, reg.IsDeleted).Scan(&reg.UpdatedAt)
	if err != nil {
		return notFound(err, domain.NotFound("registration", reg.ID))
	}
	return nil
}

func (r *registrationRepo) listIndividual(ctx context.Context, query string, args ...any) ([]*domain.IndividualRegistration, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.IndividualRegistration
	for rows.Next() {
		reg, err := scanIndividual(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepo) ListIndividualByUser(ctx context.Context, userID int64) ([]*domain.IndividualRegistration, error) {
	return r.listIndividual(ctx, individualSelect+` WHERE r.user_id = $1 AND NOT r.is_deleted ORDER BY r.id`, userID)
}

func (r *registrationRepo) ListIndividualByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.IndividualRegistration, error) {
	where, args := filterClause(`p.temple_id = $1`, []any{templeID}, f)
	return r.listIndividual(ctx, individualSelect+where+` ORDER BY r.id`, args...)
}

func (r *registrationRepo) TeamExists(ctx context.Context, templeID, eventID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM team_registrations
		               WHERE temple_id = $1 AND event_id = $2 AND NOT is_deleted)
	`, templeID, eventID).Scan(&exists)
	return exists, err
}

func (r *registrationRepo) CreateTeam(ctx context.Context, reg *domain.TeamRegistration) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO team_registrations (temple_id, event_id, status, event_result_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, reg.TempleID, reg.EventID, reg.Status, reg.EventResultID).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if uniqueViolationOn(err, "uq_team_registrations_temple_event") {
		return domain.ErrDuplicateTeamRegistration.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("insert team registration: %w", err)
	}
	return r.replaceMembers(ctx, reg.ID, reg.MemberIDs)
}

// replaceMembers rewrites the ordered roster. Position follows slice order.
func (r *registrationRepo) replaceMembers(ctx context.Context, registrationID int64, memberIDs []int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM team_registration_members WHERE registration_id = $1`, registrationID); err != nil {
		return fmt.Errorf("clear team members: %w", err)
	}
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO team_registration_members (registration_id, position, profile_id)
		SELECT $1, u.ord, u.profile_id
		FROM unnest($2::bigint[]) WITH ORDINALITY AS u(profile_id, ord)
	`, registrationID, memberIDs)
	if err != nil {
		return fmt.Errorf("insert team members: %w", err)
	}
	return nil
}

func (r *registrationRepo) GetTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error) {
	reg, err := scanTeam(r.q.QueryRow(ctx, teamSelect+` WHERE r.id = $1 AND NOT r.is_deleted`, id))
	if err != nil {
		return nil, notFound(err, domain.NotFound("team_registration", id))
	}
	return reg, nil
}

func (r *registrationRepo) LockTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error) {
	reg, err := scanTeam(r.q.QueryRow(ctx, teamSelect+` WHERE r.id = $1 AND NOT r.is_deleted FOR UPDATE OF r`, id))
	if err != nil {
		return nil, notFound(err, domain.NotFound("team_registration", id))
	}
	return reg, nil
}

func (r *registrationRepo) UpdateTeam(ctx context.Context, reg *domain.TeamRegistration) error {
	err := r.q.QueryRow(ctx, `
		UPDATE team_registrations
		SET status = $2, event_result_id = $3, is_deleted = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, reg.ID, reg.Status, reg.EventResultID, reg.IsDeleted).Scan(&reg.UpdatedAt)
	if err != nil {
		return notFound(err, domain.NotFound("team_registration", reg.ID))
	}
	return r.replaceMembers(ctx, reg.ID, reg.MemberIDs)
}

func (r *registrationRepo) ListTeamByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.TeamRegistration, error) {
	where, args := filterClause(`r.temple_id = $1`, []any{templeID}, f)
	rows, err := r.q.Query(ctx, teamSelect+where+` ORDER BY r.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.TeamRegistration
	for rows.Next() {
		reg, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func filterClause(base string, args []any, f domain.RegistrationFilter) (string, []any) {
	where := ` WHERE ` + base + ` AND NOT r.is_deleted`
	if f.EventID != nil {
		args = append(args, *f.EventID)
		where += fmt.Sprintf(` AND r.event_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(` AND r.status = $%d`, len(args))
	}
	return where, args
}
