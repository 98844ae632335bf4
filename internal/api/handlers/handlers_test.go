package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/control"
	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/internal/storage"
	"github.com/your-org/footwatch/pkg/dto"
)

// --- fakes ---

type fakeStore struct {
	cases      map[uuid.UUID]*models.Case
	matches    map[uuid.UUID]*models.Match
	detections map[uuid.UUID]*models.Detection
	stats      models.MatchStats
	listErr    error

	listStatus models.MatchStatus
	listLimit  int
	listOffset int
	resets     []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:      map[uuid.UUID]*models.Case{},
		matches:    map[uuid.UUID]*models.Match{},
		detections: map[uuid.UUID]*models.Detection{},
	}
}

func (s *fakeStore) GetCase(_ context.Context, id uuid.UUID) (*models.Case, error) {
	return s.cases[id], nil
}

func (s *fakeStore) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) ListMatches(_ context.Context, status models.MatchStatus, limit, offset int) ([]models.Match, int, error) {
	s.listStatus, s.listLimit, s.listOffset = status, limit, offset
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var out []models.Match
	for _, m := range s.matches {
		if status == "" || m.Status == status {
			out = append(out, *m)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) ListMatchesByCase(_ context.Context, caseID uuid.UUID) ([]models.Match, error) {
	var out []models.Match
	for _, m := range s.matches {
		if m.CaseID == caseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) MatchStats(_ context.Context) (models.MatchStats, error) {
	return s.stats, nil
}

func (s *fakeStore) ResetMatch(_ context.Context, id uuid.UUID) (bool, error) {
	s.resets = append(s.resets, id)
	m, ok := s.matches[id]
	if !ok {
		return false, nil
	}
	if m.Status == models.MatchStatusProcessing {
		return false, models.ErrMatchProcessing
	}
	m.Status = models.MatchStatusPending
	return true, nil
}

func (s *fakeStore) DeleteMatch(_ context.Context, id uuid.UUID) ([]string, bool, error) {
	if _, ok := s.matches[id]; !ok {
		return nil, false, nil
	}
	delete(s.matches, id)
	var crops []string
	for did, d := range s.detections {
		if d.MatchID == id {
			if d.FramePath != "" {
				crops = append(crops, d.FramePath)
			}
			delete(s.detections, did)
		}
	}
	return crops, true, nil
}

func (s *fakeStore) GetDetection(_ context.Context, id uuid.UUID) (*models.Detection, error) {
	return s.detections[id], nil
}

func (s *fakeStore) ListDetections(_ context.Context, matchID uuid.UUID) ([]models.Detection, error) {
	var out []models.Detection
	for _, d := range s.detections {
		if d.MatchID == matchID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCaseDetections(_ context.Context, caseID uuid.UUID) ([]models.Detection, error) {
	var out []models.Detection
	for _, d := range s.detections {
		if m, ok := s.matches[d.MatchID]; ok && m.CaseID == caseID {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeBlob struct {
	objects map[string][]byte
	deleted []string
}

func (b *fakeBlob) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %s: %w", key, storage.ErrObjectNotFound)
	}
	return data, nil
}

func (b *fakeBlob) DeleteObjects(_ context.Context, keys []string) error {
	b.deleted = append(b.deleted, keys...)
	return nil
}

type fakeMatcher struct {
	created  int
	err      error
	nearby   []models.Footage
	assigned *models.Match
	location string
}

func (m *fakeMatcher) MatchNewCase(_ context.Context, _ uuid.UUID) (int, error) {
	return m.created, m.err
}

func (m *fakeMatcher) MatchNewFootage(_ context.Context, _ uuid.UUID) (int, error) {
	return m.created, m.err
}

func (m *fakeMatcher) FindNearbyFootage(_ context.Context, location string) ([]models.Footage, error) {
	m.location = location
	return m.nearby, nil
}

func (m *fakeMatcher) AssignManual(_ context.Context, _, _ uuid.UUID) (*models.Match, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.assigned, nil
}

type fakeScanner struct {
	store       *fakeStore
	ran         []uuid.UUID
	reprocessed []uuid.UUID
}

func (s *fakeScanner) Run(_ context.Context, id uuid.UUID) bool {
	s.ran = append(s.ran, id)
	if m, ok := s.store.matches[id]; ok {
		m.Status = models.MatchStatusCompleted
		m.PersonFound = true
		m.DetectionCount = 2
	}
	return true
}

func (s *fakeScanner) Reprocess(ctx context.Context, id uuid.UUID) bool {
	s.reprocessed = append(s.reprocessed, id)
	return s.Run(ctx, id)
}

type fakePublisher struct {
	sent []any
	err  error
}

func (p *fakePublisher) PublishControl(data any) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, data)
	return nil
}

// --- helpers ---

type testEnv struct {
	store   *fakeStore
	blob    *fakeBlob
	matcher *fakeMatcher
	scanner *fakeScanner
	pub     *fakePublisher
	router  *gin.Engine
}

func newTestEnv(withScanner bool) *testEnv {
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		store:   newFakeStore(),
		blob:    &fakeBlob{objects: map[string][]byte{}},
		matcher: &fakeMatcher{},
		pub:     &fakePublisher{},
	}
	var scanner Scanner
	if withScanner {
		env.scanner = &fakeScanner{store: env.store}
		scanner = env.scanner
	}

	r := gin.New()
	caseH := NewCaseHandler(env.store, env.matcher, scanner, env.pub)
	r.POST("/v1/cases/:id/match", caseH.Match)
	r.GET("/v1/cases/:id/nearby-footage", caseH.NearbyFootage)
	r.GET("/v1/cases/:id/analysis", caseH.Analysis)
	r.POST("/v1/cases/:id/footage/:footageId/assign", caseH.Assign)

	footageH := NewFootageHandler(env.matcher, env.pub)
	r.POST("/v1/footage/:id/match", footageH.Match)

	matchH := NewMatchHandler(env.store, env.blob, scanner, env.pub)
	r.GET("/v1/matches", matchH.List)
	r.GET("/v1/matches/stats", matchH.Stats)
	r.POST("/v1/matches/run-pending", matchH.RunPending)
	r.GET("/v1/matches/:id", matchH.Get)
	r.POST("/v1/matches/:id/reprocess", matchH.Reprocess)
	r.DELETE("/v1/matches/:id", matchH.Delete)

	detH := NewDetectionHandler(env.store, env.blob)
	r.GET("/v1/detections/:id/crop", detH.Crop)

	env.router = r
	return env
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) addMatch(caseID uuid.UUID, status models.MatchStatus, found bool) *models.Match {
	m := &models.Match{
		ID: uuid.New(), CaseID: caseID, FootageID: uuid.New(),
		MatchScore: 0.8, MatchType: models.MatchTypeLocation, Status: status,
		PersonFound: found, CreatedAt: time.Now(),
	}
	e.store.matches[m.ID] = m
	return m
}

func (e *testEnv) addDetection(matchID uuid.UUID, conf float64, path string) *models.Detection {
	d := &models.Detection{ID: uuid.New(), MatchID: matchID, ConfidenceScore: conf, FramePath: path, Method: "body_detection"}
	e.store.detections[d.ID] = d
	return d
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// --- tests ---

func TestCaseMatch(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		created  int
		err      error
		wantCode int
		wantPubs int
	}{
		{"created", "/v1/cases/" + uuid.NewString() + "/match", 3, nil, http.StatusOK, 1},
		{"nothing new", "/v1/cases/" + uuid.NewString() + "/match", 0, nil, http.StatusOK, 0},
		{"not found", "/v1/cases/" + uuid.NewString() + "/match", 0, matching.ErrCaseNotFound, http.StatusNotFound, 0},
		{"store error", "/v1/cases/" + uuid.NewString() + "/match", 0, errors.New("db down"), http.StatusInternalServerError, 0},
		{"bad id", "/v1/cases/nope/match", 0, nil, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(true)
			env.matcher.created, env.matcher.err = tt.created, tt.err

			w := env.do(http.MethodPost, tt.path)
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if len(env.pub.sent) != tt.wantPubs {
				t.Errorf("expected %d control messages, got %d", tt.wantPubs, len(env.pub.sent))
			}
			if tt.wantCode == http.StatusOK {
				resp := decode[dto.MatchesCreatedResponse](t, w)
				if resp.MatchesCreated != tt.created {
					t.Errorf("expected %d matches created, got %d", tt.created, resp.MatchesCreated)
				}
			}
		})
	}
}

func TestFootageMatch(t *testing.T) {
	env := newTestEnv(true)
	env.matcher.err = matching.ErrFootageNotFound
	if w := env.do(http.MethodPost, "/v1/footage/"+uuid.NewString()+"/match"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	env.matcher.err = nil
	env.matcher.created = 2
	w := env.do(http.MethodPost, "/v1/footage/"+uuid.NewString()+"/match")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decode[dto.MatchesCreatedResponse](t, w); resp.MatchesCreated != 2 {
		t.Errorf("expected 2 matches created, got %d", resp.MatchesCreated)
	}
}

func TestNearbyFootage(t *testing.T) {
	env := newTestEnv(true)
	kase := &models.Case{ID: uuid.New(), LastSeenLocation: "Main Street"}
	env.store.cases[kase.ID] = kase
	env.matcher.nearby = []models.Footage{{ID: uuid.New(), LocationName: "Main Street Station"}}

	w := env.do(http.MethodGet, "/v1/cases/"+kase.ID.String()+"/nearby-footage")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.NearbyFootageResponse](t, w)
	if !resp.CanApprove || len(resp.Footage) != 1 {
		t.Errorf("expected 1 footage and can_approve, got %+v", resp)
	}
	if env.matcher.location != "Main Street" {
		t.Errorf("expected lookup by case location, got %q", env.matcher.location)
	}

	env.matcher.nearby = nil
	resp = decode[dto.NearbyFootageResponse](t, env.do(http.MethodGet, "/v1/cases/"+kase.ID.String()+"/nearby-footage"))
	if resp.CanApprove {
		t.Error("expected can_approve false without nearby footage")
	}

	if w := env.do(http.MethodGet, "/v1/cases/"+uuid.NewString()+"/nearby-footage"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown case, got %d", w.Code)
	}
}

func TestCaseAnalysis(t *testing.T) {
	env := newTestEnv(true)
	kase := &models.Case{ID: uuid.New(), PersonName: "Jane"}
	env.store.cases[kase.ID] = kase

	found := env.addMatch(kase.ID, models.MatchStatusCompleted, true)
	env.addMatch(kase.ID, models.MatchStatusPending, false)
	env.addMatch(kase.ID, models.MatchStatusProcessing, false)
	env.addMatch(uuid.New(), models.MatchStatusPending, false)
	env.addDetection(found.ID, 0.9, "a.jpg")
	env.addDetection(found.ID, 0.7, "b.jpg")
	env.addDetection(found.ID, 0.4, "")

	w := env.do(http.MethodGet, "/v1/cases/"+kase.ID.String()+"/analysis")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.CaseAnalysisResponse](t, w)
	want := dto.CaseAnalysisStats{
		TotalMatches:      3,
		SuccessfulMatches: 1,
		TotalDetections:   3,
		HighConfidence:    1,
		Processing:        1,
		Pending:           1,
	}
	if resp.Stats != want {
		t.Errorf("expected stats %+v, got %+v", want, resp.Stats)
	}
}

func TestAssignRunsScan(t *testing.T) {
	env := newTestEnv(true)
	caseID := uuid.New()
	match := env.addMatch(caseID, models.MatchStatusPending, false)
	match.MatchType = models.MatchTypeManual
	env.matcher.assigned = match

	w := env.do(http.MethodPost, fmt.Sprintf("/v1/cases/%s/footage/%s/assign", caseID, match.FootageID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[dto.ScanResponse](t, w)
	if !resp.Completed || !resp.Match.PersonFound || resp.Match.DetectionCount != 2 {
		t.Errorf("expected completed scan summary, got %+v", resp)
	}
	if len(env.scanner.ran) != 1 || env.scanner.ran[0] != match.ID {
		t.Errorf("expected scan of %s, got %v", match.ID, env.scanner.ran)
	}
}

func TestAssignWithoutScanner(t *testing.T) {
	env := newTestEnv(false)
	caseID := uuid.New()
	match := env.addMatch(caseID, models.MatchStatusPending, false)
	env.matcher.assigned = match

	w := env.do(http.MethodPost, fmt.Sprintf("/v1/cases/%s/footage/%s/assign", caseID, match.FootageID))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(env.pub.sent) != 1 {
		t.Fatalf("expected run_pending to be published, got %d messages", len(env.pub.sent))
	}
	if cmd, ok := env.pub.sent[0].(control.Command); !ok || cmd.Action != control.ActionRunPending {
		t.Errorf("expected run_pending command, got %+v", env.pub.sent[0])
	}
}

func TestAssignNotFound(t *testing.T) {
	env := newTestEnv(true)
	env.matcher.err = matching.ErrFootageNotFound
	w := env.do(http.MethodPost, fmt.Sprintf("/v1/cases/%s/footage/%s/assign", uuid.New(), uuid.New()))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, fmt.Sprintf("/v1/cases/%s/footage/bad/assign", uuid.New())); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestListMatches(t *testing.T) {
	env := newTestEnv(true)
	env.addMatch(uuid.New(), models.MatchStatusPending, false)
	env.addMatch(uuid.New(), models.MatchStatusCompleted, true)
	env.store.stats = models.MatchStats{Total: 2, Pending: 1, Completed: 1, PersonFound: 1}

	w := env.do(http.MethodGet, "/v1/matches?status=completed&page=3")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.MatchListResponse](t, w)
	if env.store.listStatus != models.MatchStatusCompleted {
		t.Errorf("expected status filter completed, got %q", env.store.listStatus)
	}
	if env.store.listLimit != 20 || env.store.listOffset != 40 {
		t.Errorf("expected limit 20 offset 40, got %d %d", env.store.listLimit, env.store.listOffset)
	}
	if resp.Page != 3 || resp.PageSize != 20 || resp.Stats.Total != 2 {
		t.Errorf("unexpected list response %+v", resp)
	}

	if w := env.do(http.MethodGet, "/v1/matches?status=bogus"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad status, got %d", w.Code)
	}

	env.do(http.MethodGet, "/v1/matches?page=0")
	if env.store.listOffset != 0 {
		t.Errorf("expected page 0 to clamp to offset 0, got %d", env.store.listOffset)
	}

	w = env.do(http.MethodGet, "/v1/matches?page=9223372036854775807")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for huge page, got %d", w.Code)
	}
	if env.store.listOffset != (maxMatchPage-1)*matchPageSize {
		t.Errorf("expected offset clamped to %d, got %d", (maxMatchPage-1)*matchPageSize, env.store.listOffset)
	}
}

func TestMatchStats(t *testing.T) {
	env := newTestEnv(true)
	env.store.stats = models.MatchStats{Total: 5, Failed: 2}
	resp := decode[dto.MatchStatsResponse](t, env.do(http.MethodGet, "/v1/matches/stats"))
	if resp.Total != 5 || resp.Failed != 2 {
		t.Errorf("unexpected stats %+v", resp)
	}
}

func TestGetMatch(t *testing.T) {
	env := newTestEnv(true)
	m := env.addMatch(uuid.New(), models.MatchStatusCompleted, true)
	d := env.addDetection(m.ID, 0.8, "detections/x.jpg")

	w := env.do(http.MethodGet, "/v1/matches/"+m.ID.String())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.MatchDetailResponse](t, w)
	if resp.Match.ID != m.ID || len(resp.Detections) != 1 {
		t.Fatalf("unexpected detail %+v", resp)
	}
	wantURL := "/v1/detections/" + d.ID.String() + "/crop"
	if resp.Detections[0].CropURL != wantURL {
		t.Errorf("expected crop url %s, got %s", wantURL, resp.Detections[0].CropURL)
	}

	if w := env.do(http.MethodGet, "/v1/matches/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestReprocess(t *testing.T) {
	env := newTestEnv(true)
	m := env.addMatch(uuid.New(), models.MatchStatusFailed, false)

	w := env.do(http.MethodPost, "/v1/matches/"+m.ID.String()+"/reprocess")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(env.scanner.reprocessed) != 1 {
		t.Errorf("expected 1 reprocess, got %d", len(env.scanner.reprocessed))
	}
	if resp := decode[dto.ScanResponse](t, w); resp.Match.Status != string(models.MatchStatusCompleted) {
		t.Errorf("expected status completed, got %s", resp.Match.Status)
	}
}

func TestReprocessWithoutScanner(t *testing.T) {
	env := newTestEnv(false)
	m := env.addMatch(uuid.New(), models.MatchStatusCompleted, true)

	w := env.do(http.MethodPost, "/v1/matches/"+m.ID.String()+"/reprocess")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(env.store.resets) != 1 || len(env.pub.sent) != 1 {
		t.Errorf("expected reset and run_pending, got %d resets %d messages", len(env.store.resets), len(env.pub.sent))
	}
}

func TestRunPending(t *testing.T) {
	env := newTestEnv(true)
	if w := env.do(http.MethodPost, "/v1/matches/run-pending"); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(env.pub.sent) != 1 {
		t.Errorf("expected 1 control message, got %d", len(env.pub.sent))
	}

	env.pub.err = errors.New("nats down")
	if w := env.do(http.MethodPost, "/v1/matches/run-pending"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestDeleteMatch(t *testing.T) {
	env := newTestEnv(true)
	m := env.addMatch(uuid.New(), models.MatchStatusCompleted, true)
	env.addDetection(m.ID, 0.8, "detections/a.jpg")
	env.addDetection(m.ID, 0.5, "")

	if w := env.do(http.MethodDelete, "/v1/matches/"+m.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(env.blob.deleted) != 1 || env.blob.deleted[0] != "detections/a.jpg" {
		t.Errorf("expected crop deleted, got %v", env.blob.deleted)
	}
	if len(env.store.detections) != 0 {
		t.Errorf("expected detections removed, got %d", len(env.store.detections))
	}

	if w := env.do(http.MethodDelete, "/v1/matches/"+m.ID.String()); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestDetectionCrop(t *testing.T) {
	env := newTestEnv(true)
	m := env.addMatch(uuid.New(), models.MatchStatusCompleted, true)
	withCrop := env.addDetection(m.ID, 0.8, "detections/a.jpg")
	missingBlob := env.addDetection(m.ID, 0.8, "detections/gone.jpg")
	noCrop := env.addDetection(m.ID, 0.8, "")
	env.blob.objects["detections/a.jpg"] = []byte{0xff, 0xd8}

	w := env.do(http.MethodGet, "/v1/detections/"+withCrop.ID.String()+"/crop")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}

	for _, id := range []uuid.UUID{missingBlob.ID, noCrop.ID, uuid.New()} {
		if w := env.do(http.MethodGet, "/v1/detections/"+id.String()+"/crop"); w.Code != http.StatusNotFound {
			t.Errorf("expected 404 for %s, got %d", id, w.Code)
		}
	}
}

func TestReprocessProcessingMatch(t *testing.T) {
	for _, withScanner := range []bool{true, false} {
		t.Run(fmt.Sprintf("scanner=%v", withScanner), func(t *testing.T) {
			env := newTestEnv(withScanner)
			m := env.addMatch(uuid.New(), models.MatchStatusProcessing, false)

			w := env.do(http.MethodPost, "/v1/matches/"+m.ID.String()+"/reprocess")
			if w.Code != http.StatusConflict {
				t.Fatalf("expected 409, got %d", w.Code)
			}
			if len(env.store.resets) != 0 || len(env.pub.sent) != 0 {
				t.Errorf("expected no reset and no trigger, got %d resets %d messages", len(env.store.resets), len(env.pub.sent))
			}
			if withScanner && len(env.scanner.reprocessed) != 0 {
				t.Errorf("expected no rescan, got %d", len(env.scanner.reprocessed))
			}
		})
	}
}

func TestAssignProcessingMatch(t *testing.T) {
	env := newTestEnv(true)
	env.matcher.err = fmt.Errorf("upsert manual match: %w", models.ErrMatchProcessing)

	w := env.do(http.MethodPost, fmt.Sprintf("/v1/cases/%s/footage/%s/assign", uuid.New(), uuid.New()))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if len(env.scanner.ran) != 0 {
		t.Errorf("expected no scan, got %d", len(env.scanner.ran))
	}
}
