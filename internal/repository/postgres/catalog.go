package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"events-service/internal/domain"
)

type templeRepo struct{ q querier }

func (r *templeRepo) GetByID(ctx context.Context, id int64) (*domain.Temple, error) {
	var t domain.Temple
	err := r.q.QueryRow(ctx, `SELECT id, name, code, created_at FROM temples WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Code, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.NotFound("temple", id))
	}
	return &t, nil
}

func (r *templeRepo) List(ctx context.Context) ([]*domain.Temple, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, code, created_at FROM temples ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var temples []*domain.Temple
	for rows.Next() {
		t := &domain.Temple{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.CreatedAt); err != nil {
			return nil, err
		}
		temples = append(temples, t)
	}
	return temples, rows.Err()
}

func (r *templeRepo) Upsert(ctx context.Context, t *domain.Temple) error {
	if t.ID == 0 {
		return r.q.QueryRow(ctx, `
			INSERT INTO temples (name, code) VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, created_at
		`, t.Name, t.Code).Scan(&t.ID, &t.CreatedAt)
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO temples (id, name, code) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code
		RETURNING created_at
	`, t.ID, t.Name, t.Code).Scan(&t.CreatedAt)
	if err != nil {
		return err
	}
	return syncSequence(ctx, r.q, "temples")
}

type profileRepo struct{ q querier }

const profileColumns = `id, name, gender, date_of_birth, temple_id, role_id, created_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var role int
	if err := row.Scan(&p.ID, &p.Name, &p.Gender, &p.DateOfBirth, &p.TempleID, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	p, err := scanProfile(r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound.With("profile", id))
	}
	return p, nil
}

func (r *profileRepo) LockByID(ctx context.Context, id int64) (*domain.Profile, error) {
	p, err := scanProfile(r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound.With("profile", id))
	}
	return p, nil
}

func (r *profileRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Profile, error) {
	out := make(map[int64]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *profileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	if p.ID == 0 {
		return r.q.QueryRow(ctx, `
			INSERT INTO profiles (name, gender, date_of_birth, temple_id, role_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, p.Name, p.Gender, p.DateOfBirth, p.TempleID, int(p.Role)).Scan(&p.ID, &p.CreatedAt)
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO profiles (id, name, gender, date_of_birth, temple_id, role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			gender = EXCLUDED.gender,
			date_of_birth = EXCLUDED.date_of_birth,
			temple_id = EXCLUDED.temple_id,
			role_id = EXCLUDED.role_id
		RETURNING created_at
	`, p.ID, p.Name, p.Gender, p.DateOfBirth, p.TempleID, int(p.Role)).Scan(&p.CreatedAt)
	if err != nil {
		return err
	}
	return syncSequence(ctx, r.q, "profiles")
}

type eventRepo struct{ q querier }

const eventSelect = `
	SELECT e.id, e.event_type_id, e.age_category_id, e.gender, e.closed, e.created_at,
	       t.name, t.kind, t.participant_count,
	       c.name, c.from_age, c.to_age
	FROM events e
	JOIN event_types t ON t.id = e.event_type_id
	JOIN age_categories c ON c.id = e.age_category_id`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{EventType: &domain.EventType{}, AgeCategory: &domain.AgeCategory{}}
	err := row.Scan(
		&e.ID, &e.EventTypeID, &e.AgeCategoryID, &e.Gender, &e.Closed, &e.CreatedAt,
		&e.EventType.Name, &e.EventType.Kind, &e.EventType.ParticipantCount,
		&e.AgeCategory.Name, &e.AgeCategory.FromAge, &e.AgeCategory.ToAge,
	)
	if err != nil {
		return nil, err
	}
	e.EventType.ID = e.EventTypeID
	e.AgeCategory.ID = e.AgeCategoryID
	return e, nil
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(r.q.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrEventNotFound.With("event", id))
	}
	return e, nil
}

func (r *eventRepo) LockByID(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(r.q.QueryRow(ctx, eventSelect+` WHERE e.id = $1 FOR UPDATE OF e`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrEventNotFound.With("event", id))
	}
	return e, nil
}

func (r *eventRepo) List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	query := eventSelect + ` WHERE TRUE`
	var args []any
	if !f.IncludeClosed {
		query += ` AND NOT e.closed`
	}
	if f.EventTypeID != nil {
		args = append(args, *f.EventTypeID)
		query += fmt.Sprintf(` AND e.event_type_id = $%d`, len(args))
	}
	if f.AgeCategoryID != nil {
		args = append(args, *f.AgeCategoryID)
		query += fmt.Sprintf(` AND e.age_category_id = $%d`, len(args))
	}
	if f.Gender != nil {
		args = append(args, *f.Gender)
		query += fmt.Sprintf(` AND e.gender = $%d`, len(args))
	}
	query += ` ORDER BY e.id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) UpsertEventType(ctx context.Context, et *domain.EventType) error {
	if et.ID == 0 {
		return r.q.QueryRow(ctx, `
			INSERT INTO event_types (name, kind, participant_count) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, participant_count = EXCLUDED.participant_count
			RETURNING id
		`, et.Name, et.Kind, et.ParticipantCount).Scan(&et.ID)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO event_types (id, name, kind, participant_count) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, kind = EXCLUDED.kind, participant_count = EXCLUDED.participant_count
	`, et.ID, et.Name, et.Kind, et.ParticipantCount)
	if err != nil {
		return err
	}
	return syncSequence(ctx, r.q, "event_types")
}

func (r *eventRepo) UpsertAgeCategory(ctx context.Context, c *domain.AgeCategory) error {
	if c.ID == 0 {
		return r.q.QueryRow(ctx, `
			INSERT INTO age_categories (name, from_age, to_age) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET from_age = EXCLUDED.from_age, to_age = EXCLUDED.to_age
			RETURNING id
		`, c.Name, c.FromAge, c.ToAge).Scan(&c.ID)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO age_categories (id, name, from_age, to_age) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, from_age = EXCLUDED.from_age, to_age = EXCLUDED.to_age
	`, c.ID, c.Name, c.FromAge, c.ToAge)
	if err != nil {
		return err
	}
	return syncSequence(ctx, r.q, "age_categories")
}

func (r *eventRepo) Upsert(ctx context.Context, e *domain.Event) error {
	if e.ID == 0 {
		return r.q.QueryRow(ctx, `
			INSERT INTO events (event_type_id, age_category_id, gender, closed) VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_type_id, age_category_id, gender) DO UPDATE SET closed = EXCLUDED.closed
			RETURNING id, created_at
		`, e.EventTypeID, e.AgeCategoryID, e.Gender, e.Closed).Scan(&e.ID, &e.CreatedAt)
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO events (id, event_type_id, age_category_id, gender, closed) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			event_type_id = EXCLUDED.event_type_id,
			age_category_id = EXCLUDED.age_category_id,
			gender = EXCLUDED.gender,
			closed = EXCLUDED.closed
		RETURNING created_at
	`, e.ID, e.EventTypeID, e.AgeCategoryID, e.Gender, e.Closed).Scan(&e.CreatedAt)
	if err != nil {
		return err
	}
	return syncSequence(ctx, r.q, "events")
}

type resultRepo struct{ q querier }

func (r *resultRepo) GetByID(ctx context.Context, id int64) (*domain.EventResult, error) {
	var res domain.EventResult
	err := r.q.QueryRow(ctx, `SELECT id, event_type_id, rank, points FROM event_results WHERE id = $1`, id).
		Scan(&res.ID, &res.EventTypeID, &res.Rank, &res.Points)
	if err != nil {
		return nil, notFound(err, domain.NotFound("event_result", id))
	}
	return &res, nil
}

func (r *resultRepo) GetByTypeAndRank(ctx context.Context, eventTypeID int64, rank domain.Rank) (*domain.EventResult, error) {
	var res domain.EventResult
	err := r.q.QueryRow(ctx, `
		SELECT id, event_type_id, rank, points FROM event_results
		WHERE event_type_id = $1 AND rank = $2
	`, eventTypeID, rank).Scan(&res.ID, &res.EventTypeID, &res.Rank, &res.Points)
	if err != nil {
		return nil, notFound(err, domain.ErrResultNotConfigured)
	}
	return &res, nil
}

func (r *resultRepo) ListByEventType(ctx context.Context, eventTypeID int64) ([]*domain.EventResult, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, event_type_id, rank, points FROM event_results
		WHERE event_type_id = $1 ORDER BY id
	`, eventTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.EventResult
	for rows.Next() {
		res := &domain.EventResult{}
		if err := rows.Scan(&res.ID, &res.EventTypeID, &res.Rank, &res.Points); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *resultRepo) Upsert(ctx context.Context, res *domain.EventResult) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO event_results (event_type_id, rank, points) VALUES ($1, $2, $3)
		ON CONFLICT (event_type_id, rank) DO UPDATE SET points = EXCLUDED.points
		RETURNING id
	`, res.EventTypeID, res.Rank, res.Points).Scan(&res.ID)
}
