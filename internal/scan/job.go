// Package scan runs the video analysis job for a single match: it gathers the
// case's reference signatures, samples the footage, persists every finding and
// records the summary on the match.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/internal/observability"
)

const progressLogEvery = 10

type Options struct {
	TempDir        string
	MaxScanSeconds float64
}

// Runner executes scan jobs. It is safe for sequential use by one scheduler and
// for concurrent use on distinct matches.
type Runner struct {
	store     Store
	blob      Blob
	extractor Extractor
	notifier  Notifier
	opts      Options
	now       func() time.Time
}

func NewRunner(store Store, blob Blob, extractor Extractor, notifier Notifier, opts Options) *Runner {
	if opts.MaxScanSeconds <= 0 {
		opts.MaxScanSeconds = evidence.MaxScanSeconds
	}
	return &Runner{
		store:     store,
		blob:      blob,
		extractor: extractor,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
	}
}

// scanState accumulates what a job has persisted so far.
type scanState struct {
	match      *models.Match
	persisted  int
	confidence float64
}

func (s *scanState) result() models.MatchResult {
	res := models.MatchResult{
		Status:         models.MatchStatusCompleted,
		PersonFound:    s.persisted > 0,
		DetectionCount: s.persisted,
	}
	if s.persisted > 0 {
		mean := s.confidence / float64(s.persisted)
		res.ConfidenceScore = &mean
	}
	return res
}

// Run scans the footage of one match. It reports whether the match reached
// the completed state; every failure is recorded on the match, never returned.
func (r *Runner) Run(ctx context.Context, matchID uuid.UUID) bool {
	return r.RunWithProgress(ctx, matchID, nil)
}

// Reprocess resets a match to pending and scans it again. Detections from
// earlier runs are kept.
func (r *Runner) Reprocess(ctx context.Context, matchID uuid.UUID) bool {
	ok, err := r.store.ResetMatch(ctx, matchID)
	if errors.Is(err, models.ErrMatchProcessing) {
		slog.Warn("match is already being scanned", "match_id", matchID)
		return false
	}
	if err != nil {
		slog.Error("failed to reset match", "match_id", matchID, "error", err)
		return false
	}
	if !ok {
		slog.Warn("match not found for reprocess", "match_id", matchID)
		return false
	}
	return r.Run(ctx, matchID)
}

func (r *Runner) RunWithProgress(ctx context.Context, matchID uuid.UUID, progress ProgressFunc) (completed bool) {
	match, err := r.store.ClaimMatch(ctx, matchID, r.now())
	if err != nil {
		slog.Error("failed to claim match", "match_id", matchID, "error", err)
		return false
	}
	if match == nil {
		slog.Warn("match not found or already processing", "match_id", matchID)
		return false
	}

	start := time.Now()
	state := &scanState{match: match}
	r.publish(ctx, match, models.MatchStatusProcessing, nil)
	slog.Info("scan started", "match_id", matchID, "case_id", match.CaseID, "footage_id", match.FootageID)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("scan panicked", "match_id", matchID, "panic", rec)
			r.fail(ctx, state, fmt.Errorf("panic: %v", rec))
			completed = false
		}
		observability.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	err = r.scan(ctx, state, progress)
	switch {
	case err == nil:
	case errors.Is(err, ErrFrameDecode) && state.persisted > 0:
		slog.Warn("scan aborted after frame decode failure", "match_id", matchID, "detections", state.persisted, "error", err)
	case ctx.Err() != nil && state.persisted > 0:
		slog.Warn("scan interrupted, keeping partial result", "match_id", matchID, "detections", state.persisted)
	case ctx.Err() != nil:
		r.release(ctx, state)
		return false
	default:
		r.fail(ctx, state, err)
		return false
	}

	return r.complete(ctx, state)
}

func (r *Runner) scan(ctx context.Context, state *scanState, progress ProgressFunc) error {
	match := state.match

	c, err := r.store.GetCase(ctx, match.CaseID)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	if c == nil {
		return fmt.Errorf("case %s not found", match.CaseID)
	}

	refs, err := r.referenceSignatures(ctx, c)
	if err != nil {
		return err
	}

	footage, err := r.store.GetFootage(ctx, match.FootageID)
	if err != nil {
		return fmt.Errorf("get footage: %w", err)
	}
	if footage == nil {
		return fmt.Errorf("footage %s: %w", match.FootageID, ErrMissingSourceFile)
	}

	path, cleanup, err := r.fetchVideo(ctx, footage.VideoPath)
	if err != nil {
		return err
	}
	defer cleanup()

	video, err := r.extractor.OpenVideo(path)
	if err != nil {
		return fmt.Errorf("open video %s: %w: %v", footage.VideoPath, ErrMissingSourceFile, err)
	}
	defer video.Close()

	return r.sample(ctx, state, video, footage.FPS, refs, progress)
}

// referenceSignatures extracts one signature per usable reference image.
// Unreadable or faceless images are skipped.
func (r *Runner) referenceSignatures(ctx context.Context, c *models.Case) ([]evidence.Signature, error) {
	var refs []evidence.Signature
	for _, img := range c.ReferenceImages {
		data, err := r.blob.GetObject(ctx, img.ImagePath)
		if err != nil {
			slog.Warn("skipping unreadable reference image", "case_id", c.ID, "path", img.ImagePath, "error", err)
			continue
		}

		res := r.extractor.EncodeReference(data)
		switch res.Outcome {
		case evidence.OK:
			refs = append(refs, res.Value)
		case evidence.Skip:
			slog.Warn("skipping reference image", "case_id", c.ID, "path", img.ImagePath, "error", res.Err)
		case evidence.Fatal:
			return nil, fmt.Errorf("encode reference %s: %w", img.ImagePath, res.Err)
		}
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("case %s: %w", c.ID, ErrNoUsableSignatures)
	}
	slog.Info("reference signatures loaded", "case_id", c.ID, "images", len(c.ReferenceImages), "signatures", len(refs))
	return refs, nil
}

// fetchVideo downloads the footage blob into a temp file.
func (r *Runner) fetchVideo(ctx context.Context, key string) (string, func(), error) {
	noop := func() {}
	if key == "" {
		return "", noop, fmt.Errorf("empty video path: %w", ErrMissingSourceFile)
	}

	ok, err := r.blob.Exists(ctx, key)
	if err != nil {
		return "", noop, fmt.Errorf("stat %s: %w: %v", key, ErrMissingSourceFile, err)
	}
	if !ok {
		return "", noop, fmt.Errorf("%s: %w", key, ErrMissingSourceFile)
	}

	f, err := os.CreateTemp(r.opts.TempDir, "footage-*"+filepath.Ext(key))
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	cleanup := func() { os.Remove(path) }

	if err := r.blob.Download(ctx, key, path); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download %s: %w: %v", key, ErrMissingSourceFile, err)
	}
	return path, cleanup, nil
}

func (r *Runner) sample(ctx context.Context, state *scanState, video Video, fallbackFPS float64, refs []evidence.Signature, progress ProgressFunc) error {
	fps := video.FPS()
	if fps <= 0 {
		fps = fallbackFPS
	}
	total := video.FrameCount()
	interval := evidence.SamplingInterval(total, fps)
	limit := evidence.FrameLimit(fps, r.opts.MaxScanSeconds)

	expected := 0
	if total > 0 {
		expected = (min(total-1, limit) / interval) + 1
	}
	slog.Info("sampling video", "match_id", state.match.ID, "fps", fps, "frames", total, "interval", interval, "expected_samples", expected)

	samples := 0
	for idx := 0; idx <= limit; idx += interval {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := video.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !errors.Is(err, ErrFrameDecode) {
				err = fmt.Errorf("%w: %v", ErrFrameDecode, err)
			}
			return fmt.Errorf("frame %d: %w", idx, err)
		}

		findings, err := r.extractor.Analyze(frame, refs)
		frame.Close()
		observability.FramesSampled.Inc()
		samples++
		if err != nil {
			slog.Warn("skipping frame", "match_id", state.match.ID, "frame", idx, "error", err)
		} else {
			// Findings of an analysed frame are kept even if the run is interrupted.
			r.persistFindings(context.WithoutCancel(ctx), state, evidence.Timestamp(idx, fps), findings)
		}

		if progress != nil {
			progress(samples, expected)
		}
		if samples%progressLogEvery == 0 {
			slog.Info("scan progress", "match_id", state.match.ID, "samples", samples, "expected", expected, "detections", state.persisted)
		}

		if interval > 1 {
			if err := video.Skip(interval - 1); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("skip frames after %d: %w: %v", idx, ErrFrameDecode, err)
			}
		}
	}

	slog.Info("sampling finished", "match_id", state.match.ID, "samples", samples, "detections", state.persisted)
	return nil
}

// CropKey is the blob key of a detection crop.
func CropKey(matchID uuid.UUID, ts float64, method evidence.Method, n int) string {
	return fmt.Sprintf("detections/detection_%s_%d_%s_%d.jpg", matchID, int(ts), method, n)
}

func (r *Runner) persistFindings(ctx context.Context, state *scanState, ts float64, findings []evidence.Finding) {
	for n, f := range findings {
		res := r.persist(ctx, state.match.ID, ts, n, f)
		if res.Outcome != evidence.OK {
			slog.Warn("skipping detection", "match_id", state.match.ID, "timestamp", ts, "method", f.Method, "error", res.Err)
			continue
		}
		state.persisted++
		state.confidence += res.Value.ConfidenceScore
		observability.DetectionsTotal.WithLabelValues(f.Method.String()).Inc()
	}
}

func (r *Runner) persist(ctx context.Context, matchID uuid.UUID, ts float64, n int, f evidence.Finding) evidence.Result[*models.Detection] {
	d := &models.Detection{
		MatchID:            matchID,
		Timestamp:          ts,
		ConfidenceScore:    f.Confidence,
		FaceMatchScore:     f.FaceScore,
		ClothingMatchScore: f.ClothingScore,
		Box:                f.Box,
		Method:             f.Method.String(),
		Signature:          f.Signature,
	}

	if len(f.Crop) > 0 {
		key := CropKey(matchID, ts, f.Method, n)
		if err := r.blob.PutObject(ctx, key, f.Crop, "image/jpeg"); err != nil {
			return evidence.Skipped[*models.Detection](fmt.Errorf("%w: upload crop: %v", ErrPersistence, err))
		}
		d.FramePath = key
	}

	if err := r.store.CreateDetection(ctx, d); err != nil {
		return evidence.Skipped[*models.Detection](fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	return evidence.Ok(d)
}

func (r *Runner) complete(ctx context.Context, state *scanState) bool {
	match := state.match
	res := state.result()

	// A cancelled request context must not leave the match stuck in processing.
	writeCtx := context.WithoutCancel(ctx)
	if err := r.store.CompleteMatch(writeCtx, match.ID, res, r.now()); err != nil {
		slog.Error("failed to complete match", "match_id", match.ID, "error", err)
		r.fail(ctx, state, err)
		return false
	}
	if err := r.store.MarkFootageProcessed(writeCtx, match.FootageID); err != nil {
		slog.Warn("failed to mark footage processed", "footage_id", match.FootageID, "error", err)
	}

	observability.ScansTotal.WithLabelValues(string(models.MatchStatusCompleted)).Inc()
	r.publish(ctx, match, models.MatchStatusCompleted, &res)
	slog.Info("scan completed",
		"match_id", match.ID,
		"person_found", res.PersonFound,
		"detections", res.DetectionCount,
	)
	return true
}

func (r *Runner) fail(ctx context.Context, state *scanState, cause error) {
	match := state.match
	slog.Error("scan failed", "match_id", match.ID, "detections", state.persisted, "error", cause)

	if err := r.store.FailMatch(context.WithoutCancel(ctx), match.ID, r.now()); err != nil {
		slog.Error("failed to mark match failed", "match_id", match.ID, "error", err)
	}
	observability.ScansTotal.WithLabelValues(string(models.MatchStatusFailed)).Inc()
	r.publish(ctx, match, models.MatchStatusFailed, nil)
}

// release hands an interrupted match back to the scheduler.
func (r *Runner) release(ctx context.Context, state *scanState) {
	match := state.match
	slog.Warn("scan interrupted, returning match to pending", "match_id", match.ID)

	if err := r.store.ReleaseMatch(context.WithoutCancel(ctx), match.ID); err != nil {
		slog.Error("failed to release match", "match_id", match.ID, "error", err)
	}
	observability.ScansTotal.WithLabelValues("interrupted").Inc()
	r.publish(ctx, match, models.MatchStatusPending, nil)
}

func (r *Runner) publish(ctx context.Context, match *models.Match, status models.MatchStatus, res *models.MatchResult) {
	if r.notifier == nil {
		return
	}
	evt := models.MatchEvent{
		MatchID:   match.ID,
		CaseID:    match.CaseID,
		FootageID: match.FootageID,
		Status:    status,
		Timestamp: r.now(),
	}
	if res != nil {
		evt.PersonFound = res.PersonFound
		evt.Confidence = res.ConfidenceScore
		evt.DetectionCount = res.DetectionCount
	}
	if err := r.notifier.PublishMatchEvent(context.WithoutCancel(ctx), evt); err != nil {
		slog.Warn("failed to publish match event", "match_id", match.ID, "status", status, "error", err)
	}
}
