package submission

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Registry tracks proofs of completed tasks and their review state.
type Registry struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	ids         idgen.Generator
	clock       clock.Clock
}

// New builds a registry over repositories bound to the current unit of work.
func New(submissions repository.SubmissionRepository, tasks repository.TaskRepository, ids idgen.Generator, clk clock.Clock) *Registry {
	return &Registry{submissions: submissions, tasks: tasks, ids: ids, clock: clk}
}

// Create records a PENDING submission. A user may hold at most one pending
// submission per task.
func (r *Registry) Create(ctx context.Context, userID, taskID, proofRef string) (*domain.Submission, error) {
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return nil, apperrors.NewValidationError("proof is required", map[string]any{"proof_ref": "required"})
	}
	task, err := r.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, apperrors.MapError(err)
	}
	if !task.Active {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID, "reason": "inactive"})
	}

	if existing, err := r.submissions.FindPending(ctx, userID, taskID); err == nil {
		return nil, duplicatePending(existing.TaskID, existing.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	submission := &domain.Submission{
		ID:          r.ids.NewID(),
		TaskID:      taskID,
		UserID:      userID,
		ProofRef:    proofRef,
		Status:      domain.StatusPending,
		SubmittedAt: r.clock.Now(),
	}
	if err := r.submissions.Create(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicatePending(taskID, "")
		}
		return nil, apperrors.MapError(err)
	}
	return submission, nil
}

// Get fails with NOT_FOUND for unknown ids.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Submission, error) {
	return r.load(ctx, id, r.submissions.GetByID)
}

func (r *Registry) load(ctx context.Context, id string, get func(context.Context, string) (*domain.Submission, error)) (*domain.Submission, error) {
	submission, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("submission", map[string]any{"submission_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return submission, nil
}

// Approve moves a PENDING submission to APPROVED.
func (r *Registry) Approve(ctx context.Context, id, reviewerID string) (*domain.Submission, error) {
	return r.transition(ctx, id, reviewerID, domain.StatusApproved)
}

// Reject moves a PENDING submission to REJECTED.
func (r *Registry) Reject(ctx context.Context, id, reviewerID string) (*domain.Submission, error) {
	return r.transition(ctx, id, reviewerID, domain.StatusRejected)
}

// ListByStatus returns submissions in the given state, oldest first.
func (r *Registry) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Submission, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	items, err := r.submissions.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListByUser returns the user's submissions, newest first.
func (r *Registry) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	items, err := r.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (r *Registry) transition(ctx context.Context, id, reviewerID string, next domain.ReviewStatus) (*domain.Submission, error) {
	submission, err := r.load(ctx, id, r.submissions.GetForUpdate)
	if err != nil {
		return nil, err
	}
	if !submission.Status.CanTransition(next) {
		return nil, apperrors.NewInvalidTransition("submission", submission.Status, next)
	}
	now := r.clock.Now()
	submission.Status = next
	submission.ReviewedAt = &now
	submission.ReviewedBy = &reviewerID
	if err := r.submissions.Update(ctx, submission); err != nil {
		return nil, apperrors.MapError(err)
	}
	return submission, nil
}

func duplicatePending(taskID, existingID string) error {
	details := map[string]any{"task_id": taskID}
	if existingID != "" {
		details["submission_id"] = existingID
	}
	return apperrors.NewDuplicatePending("a submission for this task is already pending review", details)
}
