package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/models"
)

type pairKey struct{ caseID, footageID uuid.UUID }

type fakeStore struct {
	cases   map[uuid.UUID]models.Case
	footage []models.Footage
	matches map[pairKey]*models.Match
	order   []pairKey
	failOn  *uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:   map[uuid.UUID]models.Case{},
		matches: map[pairKey]*models.Match{},
	}
}

func (s *fakeStore) addCase(location string, lat, lon *float64, status string) models.Case {
	c := models.Case{ID: uuid.New(), PersonName: "test", LastSeenLocation: location, Latitude: lat, Longitude: lon, Status: status}
	s.cases[c.ID] = c
	return c
}

func (s *fakeStore) addFootage(location string, lat, lon *float64, active bool) models.Footage {
	f := models.Footage{ID: uuid.New(), Title: location, LocationName: location, Latitude: lat, Longitude: lon, IsActive: active}
	s.footage = append(s.footage, f)
	return f
}

func (s *fakeStore) GetCase(_ context.Context, id uuid.UUID) (*models.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeStore) GetFootage(_ context.Context, id uuid.UUID) (*models.Footage, error) {
	for _, f := range s.footage {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListActiveFootage(_ context.Context) ([]models.Footage, error) {
	var out []models.Footage
	for _, f := range s.footage {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCasesByStatus(_ context.Context, statuses []string) ([]models.Case, error) {
	var out []models.Case
	for _, c := range s.cases {
		for _, st := range statuses {
			if c.Status == st {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) CreateMatch(_ context.Context, nm models.NewMatch) (*models.Match, bool, error) {
	if s.failOn != nil && *s.failOn == nm.FootageID {
		return nil, false, errors.New("insert failed")
	}
	key := pairKey{nm.CaseID, nm.FootageID}
	if _, ok := s.matches[key]; ok {
		return nil, false, nil
	}
	m := &models.Match{
		ID: uuid.New(), CaseID: nm.CaseID, FootageID: nm.FootageID,
		MatchScore: nm.Score, DistanceKM: nm.DistanceKM, MatchType: nm.Type,
		Status: models.MatchStatusPending, CreatedAt: time.Now(),
	}
	s.matches[key] = m
	s.order = append(s.order, key)
	return m, true, nil
}

func (s *fakeStore) UpsertManualMatch(_ context.Context, caseID, footageID uuid.UUID) (*models.Match, error) {
	key := pairKey{caseID, footageID}
	m, ok := s.matches[key]
	if !ok {
		m = &models.Match{ID: uuid.New(), CaseID: caseID, FootageID: footageID}
		s.matches[key] = m
		s.order = append(s.order, key)
	}
	if m.Status == models.MatchStatusProcessing {
		return nil, models.ErrMatchProcessing
	}
	m.MatchScore = models.ManualMatchScore
	m.MatchType = models.MatchTypeManual
	m.Status = models.MatchStatusPending
	return m, nil
}

func ptr(v float64) *float64 { return &v }

func TestMatchNewCase(t *testing.T) {
	store := newFakeStore()
	c := store.addCase("Central Park, New York", nil, nil, models.CaseStatusActive)
	store.addFootage("Central Park, New York", nil, nil, true)
	store.addFootage("Central Park", nil, nil, true)
	store.addFootage("Brooklyn Bridge", nil, nil, true)
	store.addFootage("Central Park, New York", nil, nil, false)

	m := NewMatcher(store, 0.3)
	created, err := m.MatchNewCase(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 matches, got %d", created)
	}

	first := store.matches[store.order[0]]
	if first.MatchScore != 1.0 {
		t.Errorf("expected best match persisted first with score 1.0, got %v", first.MatchScore)
	}
	if first.MatchType != models.MatchTypeLocation {
		t.Errorf("expected type location, got %s", first.MatchType)
	}
}

func TestMatchNewCaseIsIdempotent(t *testing.T) {
	store := newFakeStore()
	c := store.addCase("Oxford Street", nil, nil, models.CaseStatusActive)
	store.addFootage("Oxford Street", nil, nil, true)

	m := NewMatcher(store, 0.3)
	if _, err := m.MatchNewCase(context.Background(), c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, err := m.MatchNewCase(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 0 {
		t.Errorf("expected 0 matches on rerun, got %d", created)
	}
	if len(store.matches) != 1 {
		t.Errorf("expected 1 stored match, got %d", len(store.matches))
	}
}

func TestMatchNewCaseProximity(t *testing.T) {
	store := newFakeStore()
	c := store.addCase("Riverside Walk", ptr(51.5007), ptr(-0.1246), models.CaseStatusActive)
	store.addFootage("Camera 12", ptr(51.5033), ptr(-0.1196), true)

	m := NewMatcher(store, 0.3)
	created, err := m.MatchNewCase(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 match, got %d", created)
	}
	match := store.matches[store.order[0]]
	if match.MatchType != models.MatchTypeProximity {
		t.Errorf("expected type proximity, got %s", match.MatchType)
	}
	if match.DistanceKM == nil || *match.DistanceKM >= 1 {
		t.Errorf("expected distance under 1km, got %v", match.DistanceKM)
	}
	if match.MatchScore < 0.9 {
		t.Errorf("expected score >= 0.9, got %v", match.MatchScore)
	}
}

func TestMatchNewCaseNotFound(t *testing.T) {
	m := NewMatcher(newFakeStore(), 0.3)
	_, err := m.MatchNewCase(context.Background(), uuid.New())
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestMatchNewCaseStoreError(t *testing.T) {
	store := newFakeStore()
	c := store.addCase("Market Square", nil, nil, models.CaseStatusActive)
	f := store.addFootage("Market Square", nil, nil, true)
	store.failOn = &f.ID

	m := NewMatcher(store, 0.3)
	if _, err := m.MatchNewCase(context.Background(), c.ID); err == nil {
		t.Error("expected error from failing store")
	}
}

func TestMatchNewFootage(t *testing.T) {
	store := newFakeStore()
	store.addCase("Harbour Front", nil, nil, models.CaseStatusActive)
	store.addCase("Harbour Front", nil, nil, models.CaseStatusQueued)
	store.addCase("Harbour Front", nil, nil, "closed")
	store.addCase("Old Town", nil, nil, models.CaseStatusActive)
	f := store.addFootage("Harbour Front", nil, nil, true)

	m := NewMatcher(store, 0.3)
	created, err := m.MatchNewFootage(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 matches, got %d", created)
	}
}

func TestMatchNewFootageInactive(t *testing.T) {
	store := newFakeStore()
	store.addCase("Harbour Front", nil, nil, models.CaseStatusActive)
	f := store.addFootage("Harbour Front", nil, nil, false)

	m := NewMatcher(store, 0.3)
	created, err := m.MatchNewFootage(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 0 {
		t.Errorf("expected 0 matches for inactive footage, got %d", created)
	}
}

func TestMatchNewFootageNotFound(t *testing.T) {
	m := NewMatcher(newFakeStore(), 0.3)
	_, err := m.MatchNewFootage(context.Background(), uuid.New())
	if !errors.Is(err, ErrFootageNotFound) {
		t.Errorf("expected ErrFootageNotFound, got %v", err)
	}
}

func TestFindNearbyFootage(t *testing.T) {
	store := newFakeStore()
	store.addFootage("Main Street Station", nil, nil, true)
	store.addFootage("Central Mall", nil, nil, true)
	store.addFootage("Main Street Station", nil, nil, false)

	m := NewMatcher(store, 0.3)
	tests := []struct {
		location string
		want     int
	}{
		{"main street", 1},
		{"Central", 1},
		{"Airport", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := m.FindNearbyFootage(context.Background(), tt.location)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("FindNearbyFootage(%q): expected %d, got %d", tt.location, tt.want, len(got))
		}
	}
}

func TestAssignManual(t *testing.T) {
	store := newFakeStore()
	c := store.addCase("Somewhere", nil, nil, models.CaseStatusActive)
	f := store.addFootage("Elsewhere entirely", nil, nil, true)

	m := NewMatcher(store, 0.3)
	match, err := m.AssignManual(context.Background(), c.ID, f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.MatchType != models.MatchTypeManual || match.MatchScore != models.ManualMatchScore {
		t.Errorf("expected manual match with score 0.9, got %s %v", match.MatchType, match.MatchScore)
	}

	match.Status = models.MatchStatusCompleted
	again, err := m.AssignManual(context.Background(), c.ID, f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != match.ID {
		t.Errorf("expected same match id, got %s and %s", match.ID, again.ID)
	}
	if again.Status != models.MatchStatusPending {
		t.Errorf("expected status pending after reassign, got %s", again.Status)
	}

	if _, err := m.AssignManual(context.Background(), c.ID, uuid.New()); !errors.Is(err, ErrFootageNotFound) {
		t.Errorf("expected ErrFootageNotFound, got %v", err)
	}

	again.Status = models.MatchStatusProcessing
	if _, err := m.AssignManual(context.Background(), c.ID, f.ID); !errors.Is(err, models.ErrMatchProcessing) {
		t.Errorf("expected ErrMatchProcessing while scanning, got %v", err)
	}
	if again.Status != models.MatchStatusProcessing {
		t.Errorf("expected status to stay processing, got %s", again.Status)
	}
}
