// Package matching pairs missing-person cases with surveillance footage by
// location and records each viable pairing as a pending match.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/geo"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/internal/observability"
)

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrFootageNotFound = errors.New("footage not found")
)

// Store is the persistence the matcher needs.
type Store interface {
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	GetFootage(ctx context.Context, id uuid.UUID) (*models.Footage, error)
	ListActiveFootage(ctx context.Context) ([]models.Footage, error)
	ListCasesByStatus(ctx context.Context, statuses []string) ([]models.Case, error)
	CreateMatch(ctx context.Context, nm models.NewMatch) (*models.Match, bool, error)
	UpsertManualMatch(ctx context.Context, caseID, footageID uuid.UUID) (*models.Match, error)
}

type Matcher struct {
	store    Store
	minScore float64
}

func NewMatcher(store Store, minScore float64) *Matcher {
	if minScore <= 0 {
		minScore = geo.DefaultMinScore
	}
	return &Matcher{store: store, minScore: minScore}
}

func casePlace(c models.Case) geo.Place {
	return geo.Place{Name: c.LastSeenLocation, Latitude: c.Latitude, Longitude: c.Longitude}
}

func footagePlace(f models.Footage) geo.Place {
	return geo.Place{Name: f.LocationName, Latitude: f.Latitude, Longitude: f.Longitude}
}

// pairing builds the match for a scored pair, or reports false if the pair is
// not viable.
func (m *Matcher) pairing(c models.Case, f models.Footage) (models.NewMatch, bool) {
	res := geo.Score(casePlace(c), footagePlace(f))
	if !res.Viable(m.minScore) {
		return models.NewMatch{}, false
	}
	typ := models.MatchTypeLocation
	if res.Proximity() {
		typ = models.MatchTypeProximity
	}
	return models.NewMatch{
		CaseID:     c.ID,
		FootageID:  f.ID,
		Score:      res.Score,
		DistanceKM: res.DistanceKM,
		Type:       typ,
	}, true
}

// persist inserts candidates best score first and returns how many rows were
// new. Pairs that already have a match are skipped silently.
func (m *Matcher) persist(ctx context.Context, trigger string, candidates []models.NewMatch) (int, error) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	created := 0
	for _, nm := range candidates {
		match, isNew, err := m.store.CreateMatch(ctx, nm)
		if err != nil {
			return created, fmt.Errorf("create match for case %s footage %s: %w", nm.CaseID, nm.FootageID, err)
		}
		if !isNew {
			continue
		}
		created++
		observability.MatchesCreated.WithLabelValues(trigger).Inc()
		slog.Info("match created",
			"match_id", match.ID,
			"case_id", nm.CaseID,
			"footage_id", nm.FootageID,
			"score", nm.Score,
			"type", nm.Type,
		)
	}
	return created, nil
}

// MatchNewCase pairs a case with every active footage and returns the number
// of matches created.
func (m *Matcher) MatchNewCase(ctx context.Context, caseID uuid.UUID) (int, error) {
	c, err := m.store.GetCase(ctx, caseID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, ErrCaseNotFound
	}

	footage, err := m.store.ListActiveFootage(ctx)
	if err != nil {
		return 0, err
	}

	var candidates []models.NewMatch
	for _, f := range footage {
		if nm, ok := m.pairing(*c, f); ok {
			candidates = append(candidates, nm)
		}
	}

	created, err := m.persist(ctx, "case", candidates)
	slog.Info("matched new case", "case_id", caseID, "footage_scanned", len(footage), "viable", len(candidates), "created", created)
	return created, err
}

// MatchNewFootage pairs a footage with every actively pursued case and
// returns the number of matches created. Inactive footage is never matched.
func (m *Matcher) MatchNewFootage(ctx context.Context, footageID uuid.UUID) (int, error) {
	f, err := m.store.GetFootage(ctx, footageID)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return 0, ErrFootageNotFound
	}
	if !f.IsActive {
		slog.Info("skipping inactive footage", "footage_id", footageID)
		return 0, nil
	}

	cases, err := m.store.ListCasesByStatus(ctx, models.ActiveCaseStatuses)
	if err != nil {
		return 0, err
	}

	var candidates []models.NewMatch
	for _, c := range cases {
		if nm, ok := m.pairing(c, *f); ok {
			candidates = append(candidates, nm)
		}
	}

	created, err := m.persist(ctx, "footage", candidates)
	slog.Info("matched new footage", "footage_id", footageID, "cases_scanned", len(cases), "viable", len(candidates), "created", created)
	return created, err
}

// FindNearbyFootage lists active footage whose location shares a word with
// location. Nothing is persisted.
func (m *Matcher) FindNearbyFootage(ctx context.Context, location string) ([]models.Footage, error) {
	if location == "" {
		return []models.Footage{}, nil
	}

	footage, err := m.store.ListActiveFootage(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]models.Footage, 0)
	for _, f := range footage {
		if geo.Nearby(location, f.LocationName) {
			nearby = append(nearby, f)
		}
	}
	return nearby, nil
}

// AssignManual pairs a case with a footage chosen by an operator. An existing
// match for the pair is returned to pending and marked manual.
func (m *Matcher) AssignManual(ctx context.Context, caseID, footageID uuid.UUID) (*models.Match, error) {
	c, err := m.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	f, err := m.store.GetFootage(ctx, footageID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFootageNotFound
	}

	match, err := m.store.UpsertManualMatch(ctx, caseID, footageID)
	if err != nil {
		return nil, err
	}
	observability.MatchesCreated.WithLabelValues("manual").Inc()
	slog.Info("manual match assigned", "match_id", match.ID, "case_id", caseID, "footage_id", footageID)
	return match, nil
}
