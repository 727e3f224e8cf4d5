package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/events"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// SubmissionReview is the outcome of reviewing a submission.
type SubmissionReview struct {
	Submission domain.Submission
	Credited   decimal.Decimal
	Balance    decimal.Decimal
	Campaign   *domain.Campaign
}

// WithdrawalReview is the outcome of reviewing a withdrawal request.
type WithdrawalReview struct {
	Request domain.WithdrawalRequest
	Balance decimal.Decimal
}

// SubmitTask records proof that an engager completed a task.
func (c *Coordinator) SubmitTask(ctx context.Context, userID, taskID, proofRef string) (result *domain.Submission, err error) {
	started := time.Now()
	defer func() {
		c.observe("submit_task", started, err, zap.String("user_id", userID), zap.String("task_id", taskID))
	}()

	var actor *domain.User
	err = c.serialized(ctx, []string{userID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			actor, err = u.actor(ctx, userID, domain.RoleEngager)
			if err != nil {
				return err
			}
			if err := u.gate.Require(actor); err != nil {
				return err
			}
			result, err = u.submissions.Create(ctx, userID, taskID, proofRef)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Type:       events.EventSubmissionCreated,
		UserID:     userID,
		ResourceID: result.ID,
		Actor:      actorOf(actor),
		Payload:    events.SubmissionPayload{TaskID: result.TaskID, Status: result.Status},
	})
	return result, nil
}

// ReviewSubmission approves or rejects a pending submission. Approval and the
// payout credit commit together or not at all.
func (c *Coordinator) ReviewSubmission(ctx context.Context, adminID, submissionID string, decision domain.Decision) (result *SubmissionReview, err error) {
	started := time.Now()
	defer func() {
		c.observe("review_submission", started, err,
			zap.String("admin_id", adminID),
			zap.String("submission_id", submissionID),
			zap.String("decision", string(decision)))
	}()

	var ownerID string
	err = c.atomic(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.actor(ctx, adminID, domain.RoleAdmin); err != nil {
			return err
		}
		if !decision.Valid() {
			return apperrors.NewValidationError("decision must be APPROVE or REJECT", map[string]any{"decision": string(decision)})
		}
		existing, err := u.submissions.Get(ctx, submissionID)
		if err != nil {
			return err
		}
		ownerID = existing.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var admin *domain.User
	err = c.serialized(ctx, []string{ownerID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			admin, err = u.actor(ctx, adminID, domain.RoleAdmin)
			if err != nil {
				return err
			}
			review := &SubmissionReview{}
			if decision == domain.DecisionReject {
				reviewed, err := u.submissions.Reject(ctx, submissionID, adminID)
				if err != nil {
					return err
				}
				review.Submission = *reviewed
			} else {
				reviewed, err := u.submissions.Approve(ctx, submissionID, adminID)
				if err != nil {
					return err
				}
				review.Submission = *reviewed
				task, err := u.catalog.GetTask(ctx, reviewed.TaskID)
				if err != nil {
					return err
				}
				if task.Payout.IsPositive() {
					if _, err := u.ledger.Credit(ctx, reviewed.UserID, task.Payout, "submission:"+reviewed.ID); err != nil {
						return err
					}
					review.Credited = task.Payout
				}
				review.Campaign, err = u.campaigns.RecordCompletion(ctx, task.ID)
				if err != nil {
					return err
				}
			}
			review.Balance, err = u.ledger.Balance(ctx, review.Submission.UserID)
			if err != nil {
				return err
			}
			result = review
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	payload := events.SubmissionPayload{TaskID: result.Submission.TaskID, Status: result.Submission.Status}
	eventType := events.EventSubmissionRejected
	if result.Submission.Status == domain.StatusApproved {
		eventType = events.EventSubmissionApproved
		credited := result.Credited
		payload.Credited = &credited
	}
	c.publish(ctx, events.Event{
		Type:       eventType,
		UserID:     result.Submission.UserID,
		ResourceID: result.Submission.ID,
		Actor:      actorOf(admin),
		Payload:    payload,
	})
	return result, nil
}

// RequestWithdrawal files a payout claim against the caller's balance.
func (c *Coordinator) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, bank domain.BankDetails) (result *domain.WithdrawalRequest, err error) {
	started := time.Now()
	defer func() {
		c.observe("request_withdrawal", started, err, zap.String("user_id", userID), zap.String("amount", amount.String()))
	}()

	var actor *domain.User
	err = c.serialized(ctx, []string{userID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			actor, err = u.actor(ctx, userID)
			if err != nil {
				return err
			}
			result, err = u.withdrawals.Create(ctx, userID, amount, bank)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Type:       events.EventWithdrawalRequested,
		UserID:     userID,
		ResourceID: result.ID,
		Actor:      actorOf(actor),
		Payload:    events.WithdrawalPayload{Amount: result.Amount, Status: result.Status},
	})
	return result, nil
}

// ReviewWithdrawal approves or rejects a pending withdrawal. Approval re-checks
// the balance and debits it in the same unit of work.
func (c *Coordinator) ReviewWithdrawal(ctx context.Context, adminID, requestID string, decision domain.Decision) (result *WithdrawalReview, err error) {
	started := time.Now()
	defer func() {
		c.observe("review_withdrawal", started, err,
			zap.String("admin_id", adminID),
			zap.String("withdrawal_id", requestID),
			zap.String("decision", string(decision)))
	}()

	var ownerID string
	err = c.atomic(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.actor(ctx, adminID, domain.RoleAdmin); err != nil {
			return err
		}
		if !decision.Valid() {
			return apperrors.NewValidationError("decision must be APPROVE or REJECT", map[string]any{"decision": string(decision)})
		}
		existing, err := u.withdrawals.Get(ctx, requestID)
		if err != nil {
			return err
		}
		ownerID = existing.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var admin *domain.User
	err = c.serialized(ctx, []string{ownerID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			admin, err = u.actor(ctx, adminID, domain.RoleAdmin)
			if err != nil {
				return err
			}
			var reviewed *domain.WithdrawalRequest
			if decision == domain.DecisionApprove {
				reviewed, err = u.withdrawals.Approve(ctx, requestID, adminID)
			} else {
				reviewed, err = u.withdrawals.Reject(ctx, requestID, adminID)
			}
			if err != nil {
				return err
			}
			balance, err := u.ledger.Balance(ctx, reviewed.UserID)
			if err != nil {
				return err
			}
			result = &WithdrawalReview{Request: *reviewed, Balance: balance}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventWithdrawalRejected
	if result.Request.Status == domain.StatusApproved {
		eventType = events.EventWithdrawalApproved
	}
	c.publish(ctx, events.Event{
		Type:       eventType,
		UserID:     result.Request.UserID,
		ResourceID: result.Request.ID,
		Actor:      actorOf(admin),
		Payload:    events.WithdrawalPayload{Amount: result.Request.Amount, Status: result.Request.Status},
	})
	return result, nil
}

// Subscribe unlocks task submission for the user. Repeating it is a no-op.
func (c *Coordinator) Subscribe(ctx context.Context, userID string) (result *domain.User, err error) {
	started := time.Now()
	defer func() {
		c.observe("subscribe", started, err, zap.String("user_id", userID))
	}()

	var changed bool
	err = c.serialized(ctx, []string{userID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			result, changed, err = u.gate.Subscribe(ctx, userID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.publish(ctx, events.Event{
			Type:   events.EventUserSubscribed,
			UserID: userID,
			Actor:  actorOf(result),
		})
	}
	return result, nil
}

// VerifyUser marks a user as verified. Admin only.
func (c *Coordinator) VerifyUser(ctx context.Context, adminID, userID string) (result *domain.User, err error) {
	started := time.Now()
	defer func() {
		c.observe("verify_user", started, err, zap.String("admin_id", adminID), zap.String("user_id", userID))
	}()

	var (
		admin   *domain.User
		changed bool
	)
	err = c.serialized(ctx, []string{userID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			admin, err = u.actor(ctx, adminID, domain.RoleAdmin)
			if err != nil {
				return err
			}
			result, err = u.user(ctx, userID)
			if err != nil {
				return err
			}
			if result.Verified {
				return nil
			}
			result.Verified = true
			result.UpdatedAt = c.clock.Now()
			changed = true
			return u.repos.Users().Update(ctx, result)
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if changed {
		c.publish(ctx, events.Event{
			Type:   events.EventUserVerified,
			UserID: userID,
			Actor:  actorOf(admin),
		})
	}
	return result, nil
}

// ContactDetails are the payout contact fields a user may edit.
type ContactDetails struct {
	AccountNumber string
	PhoneNumber   string
}

// UpdateContactDetails replaces the caller's account and phone numbers.
func (c *Coordinator) UpdateContactDetails(ctx context.Context, userID string, details ContactDetails) (result *domain.User, err error) {
	started := time.Now()
	defer func() {
		c.observe("update_contact_details", started, err, zap.String("user_id", userID))
	}()

	err = c.serialized(ctx, []string{userID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			result, err = u.actor(ctx, userID)
			if err != nil {
				return err
			}
			result.AccountNumber = details.AccountNumber
			result.PhoneNumber = details.PhoneNumber
			result.UpdatedAt = c.clock.Now()
			return apperrors.MapError(u.repos.Users().Update(ctx, result))
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
