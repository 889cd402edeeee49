package service

import (
	"context"
	"time"

	"reward-system/internal/codegen"
	"reward-system/internal/fraud"
	"reward-system/internal/model"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"
	"reward-system/pkg/types"

	ierr "reward-system/pkg/errors"
)

// ValidationService consumes one-time redemption codes. The state machine is
// deliberately small: validated flips false -> true exactly once, and every
// attempt that reaches the lookup leaves an audit entry.
//
// The engine never retries; all failures are terminal for the attempt and
// retry is a caller decision.
type ValidationService struct {
	redemptions repository.RedemptionRepository
	audits      repository.AuditRepository
	tx          repository.TxRunner
	checker     fraud.OnlineChecker
	logger      *logger.Logger
}

// NewValidationService creates a new validation service. A nil checker
// disables the connectivity gate.
func NewValidationService(
	redemptions repository.RedemptionRepository,
	audits repository.AuditRepository,
	tx repository.TxRunner,
	checker fraud.OnlineChecker,
	log *logger.Logger,
) *ValidationService {
	return &ValidationService{
		redemptions: redemptions,
		audits:      audits,
		tx:          tx,
		checker:     checker,
		logger:      log,
	}
}

// Validate attempts to consume a code on behalf of a business validator.
//
// The flow is two-phase: a cheap non-authoritative pre-check rejects the
// common already-used and expired cases without transaction overhead, then
// the authoritative compare-and-set re-reads the record inside a transaction
// and flips it together with the success audit entry. Only the transactional
// check decides the mutation; the pre-read is never trusted for that.
func (s *ValidationService) Validate(ctx context.Context, req *model.ValidateRequest) (*model.ValidateResult, error) {
	code := codegen.Normalize(req.Code)

	// Structural gate. Garbage input never reaches the storage layer.
	if !codegen.IsValidAnyFormat(code) {
		return nil, ierr.NewError("code failed format check").
			WithHint("This code is not recognized. Check for typos and try again.").
			Mark(ierr.ErrNotFound)
	}

	if s.checker != nil && !s.checker.Online(ctx) {
		return nil, ierr.NewError("validator offline").
			WithHint("No internet connection. Validation requires connectivity; please reconnect and try again.").
			Mark(ierr.ErrOffline)
	}

	method := s.method(req, code)

	redemption, err := s.redemptions.FindByCode(ctx, req.BusinessID, code)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.auditFailure(ctx, nil, req, method, "code not found")
			return nil, ierr.NewError("code not found for business").
				WithHint("This code was not found. Make sure it was issued by your business.").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()

	// Optimistic pre-check. Saves a transaction for the common replay case;
	// correctness still comes from the compare-and-set below.
	if redemption.Validated {
		s.auditFailure(ctx, redemption, req, method, "already validated")
		return nil, s.alreadyValidatedError(redemption)
	}
	if redemption.Status == model.RedemptionCancelled {
		s.auditFailure(ctx, redemption, req, method, "redemption cancelled")
		return nil, ierr.NewError("redemption cancelled").
			WithHint("This code was cancelled and is no longer valid.").
			Mark(ierr.ErrNotFound)
	}
	if redemption.Expired(now) {
		s.auditFailure(ctx, redemption, req, method, "redemption expired")
		return nil, ierr.NewError("redemption expired").
			WithHintf("This code expired on %s.", redemption.ExpiresAt.Format("Jan 2, 2006 15:04")).
			Mark(ierr.ErrExpired)
	}

	info := model.ValidationInfo{
		ValidatedAt: now,
		ValidatedBy: req.ValidatorID,
		Method:      method,
		IP:          req.IP,
		DeviceID:    req.DeviceID,
	}

	// Authoritative check-and-set. MarkValidated only matches a record that
	// is still unvalidated, so exactly one concurrent attempt can commit;
	// the success audit entry rides in the same transaction.
	txErr := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.redemptions.MarkValidated(txCtx, redemption.ID, info); err != nil {
			return err
		}
		return s.audits.Append(txCtx, s.auditEntry(redemption, req, info.Method, model.AuditSuccess, ""))
	})

	if txErr != nil {
		if ierr.IsAlreadyValidated(txErr) {
			// Another validator won the race between our pre-read and the
			// transaction. Surface their validation metadata.
			current, readErr := s.redemptions.Get(ctx, redemption.ID)
			if readErr == nil {
				redemption = current
			}
			s.auditFailure(ctx, redemption, req, method, "already validated")
			return nil, s.alreadyValidatedError(redemption)
		}

		// The transaction aborted, so the success entry is gone with it;
		// record the failure outside it, best effort.
		s.auditFailure(ctx, redemption, req, method, "transaction failed")
		s.logger.Errorw("validation transaction failed",
			"redemption_id", redemption.ID,
			"business_id", req.BusinessID,
			"error", txErr)
		return nil, ierr.WithError(txErr).
			WithHint("Validation failed due to a temporary error. Re-check the code status before retrying; it may have gone through.").
			Mark(ierr.ErrDatabase)
	}

	s.logger.Infow("redemption validated",
		"redemption_id", redemption.ID,
		"business_id", req.BusinessID,
		"validator_id", req.ValidatorID,
		"method", info.Method)

	return &model.ValidateResult{
		RedemptionID: redemption.ID,
		AccountID:    redemption.AccountID,
		RewardTitle:  redemption.RewardSnapshot.Title,
		ValidatedAt:  info.ValidatedAt,
		ValidatedBy:  info.ValidatedBy,
		Method:       info.Method,
	}, nil
}

// AuditTrail returns the validation attempts recorded for a redemption.
func (s *ValidationService) AuditTrail(ctx context.Context, redemptionID string) ([]*model.ValidationAudit, error) {
	return s.audits.ListByRedemption(ctx, redemptionID)
}

func (s *ValidationService) method(req *model.ValidateRequest, code string) string {
	if req.Method != "" {
		return req.Method
	}
	if codegen.IsValidFormat(code, model.ValidationPhysical) {
		return "qr_scan"
	}
	return "manual_entry"
}

func (s *ValidationService) alreadyValidatedError(redemption *model.Redemption) error {
	builder := ierr.NewError("code already validated")
	if redemption.Validation != nil {
		builder = builder.
			WithHintf("This code was already used on %s by %s.",
				redemption.Validation.ValidatedAt.Format("Jan 2, 2006 15:04"),
				redemption.Validation.ValidatedBy).
			WithReportableDetails(map[string]any{
				"validated_at": redemption.Validation.ValidatedAt.Format(time.RFC3339),
				"validated_by": redemption.Validation.ValidatedBy,
				"method":       redemption.Validation.Method,
			})
	} else {
		builder = builder.WithHint("This code was already used.")
	}
	return builder.Mark(ierr.ErrAlreadyValidated)
}

func (s *ValidationService) auditEntry(redemption *model.Redemption, req *model.ValidateRequest, method string, outcome model.AuditOutcome, reason string) *model.ValidationAudit {
	entry := &model.ValidationAudit{
		ID:          types.GenerateIDWithPrefix(types.ID_PREFIX_VALIDATION_AUDIT),
		BusinessID:  req.BusinessID,
		ValidatorID: req.ValidatorID,
		Method:      method,
		Outcome:     outcome,
		Reason:      reason,
		IP:          req.IP,
		DeviceID:    req.DeviceID,
		CreatedAt:   time.Now(),
	}
	if redemption != nil {
		entry.RedemptionID = redemption.ID
		entry.RewardID = redemption.RewardID
		entry.AccountID = redemption.AccountID
	}
	return entry
}

// auditFailure appends a failure entry outside any transaction, best effort.
func (s *ValidationService) auditFailure(ctx context.Context, redemption *model.Redemption, req *model.ValidateRequest, method, reason string) {
	entry := s.auditEntry(redemption, req, method, model.AuditFailure, reason)
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Errorw("failed to append failure audit entry",
			"business_id", req.BusinessID,
			"reason", reason,
			"error", err)
	}
}
