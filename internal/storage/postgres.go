package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/footwatch/internal/config"
	"github.com/your-org/footwatch/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- Cases ---

const caseColumns = `id, person_name, last_seen_location, latitude, longitude, status, created_at`

func scanCase(row rowScanner) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(&c.ID, &c.PersonName, &c.LastSeenLocation, &c.Latitude, &c.Longitude, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCase loads a case together with its reference images.
func (s *PostgresStore) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c, err := scanCase(s.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get case: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, image_path, is_primary FROM case_images
		 WHERE case_id = $1 ORDER BY is_primary DESC, uploaded_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list case images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.CaseImage
		if err := rows.Scan(&img.ID, &img.CaseID, &img.ImagePath, &img.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan case image: %w", err)
		}
		c.ReferenceImages = append(c.ReferenceImages, img)
	}
	return c, rows.Err()
}

// ListCasesByStatus returns cases whose status is one of statuses, without images.
func (s *PostgresStore) ListCasesByStatus(ctx context.Context, statuses []string) ([]models.Case, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE status = ANY($1) ORDER BY created_at`, statuses)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

// --- Footage ---

const footageColumns = `id, title, location_name, latitude, longitude, video_path,
	duration_seconds, fps, is_active, is_processed, created_at`

func scanFootage(row rowScanner) (*models.Footage, error) {
	f := &models.Footage{}
	err := row.Scan(&f.ID, &f.Title, &f.LocationName, &f.Latitude, &f.Longitude, &f.VideoPath,
		&f.DurationSeconds, &f.FPS, &f.IsActive, &f.IsProcessed, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) GetFootage(ctx context.Context, id uuid.UUID) (*models.Footage, error) {
	f, err := scanFootage(s.pool.QueryRow(ctx,
		`SELECT `+footageColumns+` FROM footage WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get footage: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListActiveFootage(ctx context.Context) ([]models.Footage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+footageColumns+` FROM footage WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active footage: %w", err)
	}
	defer rows.Close()

	var list []models.Footage
	for rows.Next() {
		f, err := scanFootage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan footage: %w", err)
		}
		list = append(list, *f)
	}
	return list, rows.Err()
}

func (s *PostgresStore) MarkFootageProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE footage SET is_processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark footage processed: %w", err)
	}
	return nil
}

// --- Matches ---

const matchColumns = `id, case_id, footage_id, match_score, distance_km, match_type, status,
	analysis_started_at, analysis_completed_at, person_found, confidence_score, detection_count, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var matchType, status string
	err := row.Scan(&m.ID, &m.CaseID, &m.FootageID, &m.MatchScore, &m.DistanceKM, &matchType, &status,
		&m.AnalysisStartedAt, &m.AnalysisCompletedAt, &m.PersonFound, &m.ConfidenceScore, &m.DetectionCount, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.MatchType = models.MatchType(matchType)
	m.Status = models.MatchStatus(status)
	return m, nil
}

func collectMatches(rows pgx.Rows) ([]models.Match, error) {
	defer rows.Close()
	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// CreateMatch inserts a pending match unless one already exists for the pair.
// created is false when the pair was already matched.
func (s *PostgresStore) CreateMatch(ctx context.Context, nm models.NewMatch) (*models.Match, bool, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx,
		`INSERT INTO location_matches (id, case_id, footage_id, match_score, distance_km, match_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (case_id, footage_id) DO NOTHING
		 RETURNING `+matchColumns,
		uuid.New(), nm.CaseID, nm.FootageID, nm.Score, nm.DistanceKM, string(nm.Type), string(models.MatchStatusPending),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("create match: %w", err)
	}
	return m, true, nil
}

// UpsertManualMatch creates a manual pairing or turns an existing one back
// into a pending manual match. A pair that is being scanned is left alone and
// models.ErrMatchProcessing is returned.
func (s *PostgresStore) UpsertManualMatch(ctx context.Context, caseID, footageID uuid.UUID) (*models.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx,
		`INSERT INTO location_matches (id, case_id, footage_id, match_score, match_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (case_id, footage_id)
		 DO UPDATE SET status = EXCLUDED.status, match_type = EXCLUDED.match_type
		 WHERE location_matches.status <> $7
		 RETURNING `+matchColumns,
		uuid.New(), caseID, footageID, models.ManualMatchScore, string(models.MatchTypeManual), string(models.MatchStatusPending),
		string(models.MatchStatusProcessing),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("upsert manual match: %w", models.ErrMatchProcessing)
		}
		return nil, fmt.Errorf("upsert manual match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM location_matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

// ClaimMatch moves a match into processing. It returns nil when the match does
// not exist or another scan already holds it.
func (s *PostgresStore) ClaimMatch(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx,
		`UPDATE location_matches SET status = $2, analysis_started_at = $3
		 WHERE id = $1 AND status <> $2
		 RETURNING `+matchColumns,
		id, string(models.MatchStatusProcessing), startedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim match: %w", err)
	}
	return m, nil
}

// CompleteMatch writes the scan summary and terminal status.
func (s *PostgresStore) CompleteMatch(ctx context.Context, id uuid.UUID, res models.MatchResult, completedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE location_matches
		 SET status = $2, person_found = $3, confidence_score = $4, detection_count = $5, analysis_completed_at = $6
		 WHERE id = $1`,
		id, string(res.Status), res.PersonFound, res.ConfidenceScore, res.DetectionCount, completedAt)
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}
	return nil
}

// FailMatch marks a match failed without touching its summary fields.
func (s *PostgresStore) FailMatch(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE location_matches SET status = $2, analysis_completed_at = $3 WHERE id = $1`,
		id, string(models.MatchStatusFailed), completedAt)
	if err != nil {
		return fmt.Errorf("fail match: %w", err)
	}
	return nil
}

// ResetMatch clears the scan summary and returns the match to pending.
// It reports false when the match does not exist, and models.ErrMatchProcessing
// when a scan currently holds it.
func (s *PostgresStore) ResetMatch(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE location_matches
		 SET status = $2, person_found = FALSE, confidence_score = NULL, detection_count = 0,
		     analysis_started_at = NULL, analysis_completed_at = NULL
		 WHERE id = $1 AND status <> $3`,
		id, string(models.MatchStatusPending), string(models.MatchStatusProcessing))
	if err != nil {
		return false, fmt.Errorf("reset match: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM location_matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("reset match: %w", err)
	}
	if exists {
		return false, fmt.Errorf("reset match %s: %w", id, models.ErrMatchProcessing)
	}
	return false, nil
}

// ReleaseMatch puts an interrupted scan back in the pending queue.
func (s *PostgresStore) ReleaseMatch(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE location_matches SET status = $2, analysis_started_at = NULL
		 WHERE id = $1 AND status = $3`,
		id, string(models.MatchStatusPending), string(models.MatchStatusProcessing))
	if err != nil {
		return fmt.Errorf("release match: %w", err)
	}
	return nil
}

// ListPendingMatches returns up to limit pending matches, oldest first.
func (s *PostgresStore) ListPendingMatches(ctx context.Context, limit int) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM location_matches WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(models.MatchStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending matches: %w", err)
	}
	return collectMatches(rows)
}

// ListMatches pages through matches newest first. An empty status lists all.
func (s *PostgresStore) ListMatches(ctx context.Context, status models.MatchStatus, limit, offset int) ([]models.Match, int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM location_matches WHERE ($1 = '' OR status = $1)`, string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM location_matches
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	matches, err := collectMatches(rows)
	if err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

func (s *PostgresStore) ListMatchesByCase(ctx context.Context, caseID uuid.UUID) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM location_matches WHERE case_id = $1 ORDER BY match_score DESC, created_at`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("list case matches: %w", err)
	}
	return collectMatches(rows)
}

func (s *PostgresStore) MatchStats(ctx context.Context) (models.MatchStats, error) {
	var st models.MatchStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE person_found),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'processing'),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        COUNT(*) FILTER (WHERE status = 'failed')
		 FROM location_matches`,
	).Scan(&st.Total, &st.PersonFound, &st.Pending, &st.Processing, &st.Completed, &st.Failed)
	if err != nil {
		return st, fmt.Errorf("match stats: %w", err)
	}
	return st, nil
}

// DeleteMatch removes a match and, through the cascade, its detections.
// It returns the crop paths of the deleted detections so the caller can
// remove the blobs, and false when the match does not exist.
func (s *PostgresStore) DeleteMatch(ctx context.Context, id uuid.UUID) ([]string, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin delete match: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT frame_path FROM person_detections WHERE match_id = $1 AND frame_path <> ''`, id)
	if err != nil {
		return nil, false, fmt.Errorf("list detection crops: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, false, fmt.Errorf("scan detection crop: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM location_matches WHERE id = $1`, id)
	if err != nil {
		return nil, false, fmt.Errorf("delete match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit delete match: %w", err)
	}
	return paths, true, nil
}

// --- Detections ---

const detectionColumns = `id, match_id, timestamp_seconds, confidence_score, face_match_score,
	clothing_match_score, detection_box, frame_path, analysis_method, verified, created_at`

func scanDetection(row rowScanner) (*models.Detection, error) {
	d := &models.Detection{}
	err := row.Scan(&d.ID, &d.MatchID, &d.Timestamp, &d.ConfidenceScore, &d.FaceMatchScore,
		&d.ClothingMatchScore, &d.Box, &d.FramePath, &d.Method, &d.Verified, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func collectDetections(rows pgx.Rows) ([]models.Detection, error) {
	defer rows.Close()
	var list []models.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// CreateDetection inserts a detection. The face signature is stored as a
// pgvector column when present.
func (s *PostgresStore) CreateDetection(ctx context.Context, d *models.Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	var sig *pgvector.Vector
	if len(d.Signature) > 0 {
		v := pgvector.NewVector(d.Signature)
		sig = &v
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO person_detections
		 (id, match_id, timestamp_seconds, confidence_score, face_match_score, clothing_match_score,
		  detection_box, frame_path, analysis_method, signature)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		d.ID, d.MatchID, d.Timestamp, d.ConfidenceScore, d.FaceMatchScore, d.ClothingMatchScore,
		d.Box, d.FramePath, d.Method, sig,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create detection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDetection(ctx context.Context, id uuid.UUID) (*models.Detection, error) {
	d, err := scanDetection(s.pool.QueryRow(ctx,
		`SELECT `+detectionColumns+` FROM person_detections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return d, nil
}

// ListDetections returns a match's detections in video order.
func (s *PostgresStore) ListDetections(ctx context.Context, matchID uuid.UUID) ([]models.Detection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+detectionColumns+` FROM person_detections WHERE match_id = $1 ORDER BY timestamp_seconds, created_at`,
		matchID)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	return collectDetections(rows)
}

// ListCaseDetections returns every detection across a case's matches, most
// confident first.
func (s *PostgresStore) ListCaseDetections(ctx context.Context, caseID uuid.UUID) ([]models.Detection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.match_id, d.timestamp_seconds, d.confidence_score, d.face_match_score,
		        d.clothing_match_score, d.detection_box, d.frame_path, d.analysis_method, d.verified, d.created_at
		 FROM person_detections d
		 JOIN location_matches m ON m.id = d.match_id
		 WHERE m.case_id = $1
		 ORDER BY d.confidence_score DESC, d.timestamp_seconds DESC`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("list case detections: %w", err)
	}
	return collectDetections(rows)
}
