package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/models"
)

// Store is the subset of storage.PostgresStore the admin API reads and writes.
type Store interface {
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context, status models.MatchStatus, limit, offset int) ([]models.Match, int, error)
	ListMatchesByCase(ctx context.Context, caseID uuid.UUID) ([]models.Match, error)
	MatchStats(ctx context.Context) (models.MatchStats, error)
	ResetMatch(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteMatch(ctx context.Context, id uuid.UUID) ([]string, bool, error)
	GetDetection(ctx context.Context, id uuid.UUID) (*models.Detection, error)
	ListDetections(ctx context.Context, matchID uuid.UUID) ([]models.Detection, error)
	ListCaseDetections(ctx context.Context, caseID uuid.UUID) ([]models.Detection, error)
}

type Blob interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

type Matcher interface {
	MatchNewCase(ctx context.Context, caseID uuid.UUID) (int, error)
	MatchNewFootage(ctx context.Context, footageID uuid.UUID) (int, error)
	FindNearbyFootage(ctx context.Context, location string) ([]models.Footage, error)
	AssignManual(ctx context.Context, caseID, footageID uuid.UUID) (*models.Match, error)
}

// Scanner runs a scan synchronously in the request goroutine.
type Scanner interface {
	Run(ctx context.Context, matchID uuid.UUID) bool
	Reprocess(ctx context.Context, matchID uuid.UUID) bool
}

// ControlPublisher sends commands to the worker over the control subject.
type ControlPublisher interface {
	PublishControl(data any) error
}
