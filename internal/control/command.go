// Package control turns control-channel messages into matcher and scheduler
// calls.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	ActionCaseCreated    = "case_created"
	ActionFootageCreated = "footage_created"
	ActionRunPending     = "run_pending"
)

// Command is the JSON payload published on the control subject.
type Command struct {
	Action    string `json:"action"`
	CaseID    string `json:"case_id,omitempty"`
	FootageID string `json:"footage_id,omitempty"`
}

func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("unmarshal command: %w", err)
	}
	return cmd, nil
}

type Matcher interface {
	MatchNewCase(ctx context.Context, caseID uuid.UUID) (int, error)
	MatchNewFootage(ctx context.Context, footageID uuid.UUID) (int, error)
}

// Trigger wakes the scheduler for an immediate cycle.
type Trigger interface {
	Trigger()
}

type Handler struct {
	matcher   Matcher
	scheduler Trigger
}

func NewHandler(matcher Matcher, scheduler Trigger) *Handler {
	return &Handler{matcher: matcher, scheduler: scheduler}
}

// HandleCommand executes one control command.
func (h *Handler) HandleCommand(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case ActionCaseCreated:
		id, err := uuid.Parse(cmd.CaseID)
		if err != nil {
			return fmt.Errorf("invalid case_id %q: %w", cmd.CaseID, err)
		}
		n, err := h.matcher.MatchNewCase(ctx, id)
		if err != nil {
			return fmt.Errorf("match case %s: %w", id, err)
		}
		if n > 0 && h.scheduler != nil {
			h.scheduler.Trigger()
		}
		return nil
	case ActionFootageCreated:
		id, err := uuid.Parse(cmd.FootageID)
		if err != nil {
			return fmt.Errorf("invalid footage_id %q: %w", cmd.FootageID, err)
		}
		n, err := h.matcher.MatchNewFootage(ctx, id)
		if err != nil {
			return fmt.Errorf("match footage %s: %w", id, err)
		}
		if n > 0 && h.scheduler != nil {
			h.scheduler.Trigger()
		}
		return nil
	case ActionRunPending:
		if h.scheduler == nil {
			return fmt.Errorf("scheduler disabled")
		}
		h.scheduler.Trigger()
		return nil
	default:
		return fmt.Errorf("unknown action: %s", cmd.Action)
	}
}

// HandleMessage is the raw subscription callback. Errors are logged, never
// returned, so a bad message cannot stop the subscription.
func (h *Handler) HandleMessage(ctx context.Context, data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		slog.Error("invalid control message", "error", err)
		return
	}
	slog.Info("control command received", "action", cmd.Action, "case_id", cmd.CaseID, "footage_id", cmd.FootageID)
	if err := h.HandleCommand(ctx, cmd); err != nil {
		slog.Error("control command failed", "action", cmd.Action, "error", err)
	}
}
