package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"events-service/internal/domain"
	"events-service/internal/repository"
)

// SeedFile is the reference data the engine expects to exist before any
// registration: temples, the event catalog and the rank to points tables.
// Profiles are optional and meant for local environments.
type SeedFile struct {
	Temples       []SeedTemple      `yaml:"temples"`
	EventTypes    []SeedEventType   `yaml:"event_types"`
	AgeCategories []SeedAgeCategory `yaml:"age_categories"`
	Events        []SeedEvent       `yaml:"events"`
	EventResults  []SeedEventResult `yaml:"event_results"`
	Profiles      []SeedProfile     `yaml:"profiles"`
}

type SeedTemple struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type SeedEventType struct {
	ID               int64  `yaml:"id"`
	Name             string `yaml:"name"`
	Kind             string `yaml:"kind"`
	ParticipantCount int    `yaml:"participant_count"`
}

type SeedAgeCategory struct {
	ID      int64  `yaml:"id"`
	Name    string `yaml:"name"`
	FromAge int    `yaml:"from_age"`
	ToAge   int    `yaml:"to_age"`
}

type SeedEvent struct {
	ID            int64  `yaml:"id"`
	EventTypeID   int64  `yaml:"event_type_id"`
	AgeCategoryID int64  `yaml:"age_category_id"`
	Gender        string `yaml:"gender"`
	Closed        bool   `yaml:"closed"`
}

type SeedEventResult struct {
	EventTypeID int64  `yaml:"event_type_id"`
	Rank        string `yaml:"rank"`
	Points      int    `yaml:"points"`
}

type SeedProfile struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Gender      string `yaml:"gender"`
	DateOfBirth string `yaml:"date_of_birth"`
	TempleID    int64  `yaml:"temple_id"`
	Role        int    `yaml:"role"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(b)
}

func ParseSeed(b []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

type Seeder struct {
	db     repository.TxManager
	logger *zap.Logger
}

func NewSeeder(db repository.TxManager, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// Apply upserts everything in f in one transaction. Running it twice is
// harmless.
func (s *Seeder) Apply(ctx context.Context, f *SeedFile) error {
	if err := f.validate(); err != nil {
		return err
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		for _, t := range f.Temples {
			if err := st.Temples().Upsert(ctx, &domain.Temple{ID: t.ID, Name: t.Name, Code: t.Code}); err != nil {
				return fmt.Errorf("temple %d: %w", t.ID, err)
			}
		}
		for _, et := range f.EventTypes {
			row := &domain.EventType{
				ID:               et.ID,
				Name:             et.Name,
				Kind:             domain.EventKind(strings.ToUpper(et.Kind)),
				ParticipantCount: et.ParticipantCount,
			}
			if err := st.Events().UpsertEventType(ctx, row); err != nil {
				return fmt.Errorf("event type %d: %w", et.ID, err)
			}
		}
		for _, c := range f.AgeCategories {
			row := &domain.AgeCategory{ID: c.ID, Name: c.Name, FromAge: c.FromAge, ToAge: c.ToAge}
			if err := st.Events().UpsertAgeCategory(ctx, row); err != nil {
				return fmt.Errorf("age category %d: %w", c.ID, err)
			}
		}
		for _, e := range f.Events {
			row := &domain.Event{
				ID:            e.ID,
				EventTypeID:   e.EventTypeID,
				AgeCategoryID: e.AgeCategoryID,
				Gender:        domain.Gender(strings.ToUpper(e.Gender)),
				Closed:        e.Closed,
			}
			if err := st.Events().Upsert(ctx, row); err != nil {
				return fmt.Errorf("event %d: %w", e.ID, err)
			}
		}
		for _, r := range f.EventResults {
			row := &domain.EventResult{
				EventTypeID: r.EventTypeID,
				Rank:        domain.Rank(strings.ToUpper(r.Rank)),
				Points:      r.Points,
			}
			if err := st.Results().Upsert(ctx, row); err != nil {
				return fmt.Errorf("result %d/%s: %w", r.EventTypeID, r.Rank, err)
			}
		}
		for _, p := range f.Profiles {
			dob, _ := time.Parse(time.DateOnly, p.DateOfBirth)
			row := &domain.Profile{
				ID:          p.ID,
				Name:        p.Name,
				Gender:      domain.Gender(strings.ToUpper(p.Gender)),
				DateOfBirth: dob,
				TempleID:    p.TempleID,
				Role:        domain.Role(p.Role),
			}
			if err := st.Profiles().Upsert(ctx, row); err != nil {
				return fmt.Errorf("profile %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("seed applied",
		zap.Int("temples", len(f.Temples)),
		zap.Int("event_types", len(f.EventTypes)),
		zap.Int("age_categories", len(f.AgeCategories)),
		zap.Int("events", len(f.Events)),
		zap.Int("event_results", len(f.EventResults)),
		zap.Int("profiles", len(f.Profiles)))
	return nil
}

// validate reports every bad row at once.
func (f *SeedFile) validate() error {
	v := &domain.ValidationError{}
	for i, et := range f.EventTypes {
		kind := domain.EventKind(strings.ToUpper(et.Kind))
		if kind != domain.EventKindIndividual && kind != domain.EventKindTeam {
			v.Add(fmt.Sprintf("event_types[%d].kind", i), "must be INDIVIDUAL or TEAM")
		}
	}
	for i, c := range f.AgeCategories {
		if c.FromAge < 0 || c.ToAge < c.FromAge {
			v.Add(fmt.Sprintf("age_categories[%d]", i), "from_age must be between 0 and to_age")
		}
	}
	for i, e := range f.Events {
		if !domain.Gender(strings.ToUpper(e.Gender)).Valid() {
			v.Add(fmt.Sprintf("events[%d].gender", i), "must be MALE, FEMALE or ALL")
		}
	}
	for i, r := range f.EventResults {
		if !domain.Rank(strings.ToUpper(r.Rank)).Placement() {
			v.Add(fmt.Sprintf("event_results[%d].rank", i), "must be FIRST, SECOND or THIRD")
		}
	}
	for i, p := range f.Profiles {
		if _, err := time.Parse(time.DateOnly, p.DateOfBirth); err != nil {
			v.Add(fmt.Sprintf("profiles[%d].date_of_birth", i), "must be YYYY-MM-DD")
		}
		if !domain.Role(p.Role).Valid() {
			v.Add(fmt.Sprintf("profiles[%d].role", i), "must be 1..4")
		}
		if !domain.Gender(strings.ToUpper(p.Gender)).Valid() {
			v.Add(fmt.Sprintf("profiles[%d].gender", i), "must be MALE, FEMALE or ALL")
		}
	}
	return v.Err()
}
