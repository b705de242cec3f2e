/*
hourbank.go - Hour-bank compensation workflow

PURPOSE:
  An employee can offset required holiday hours with an externally-issued
  "hour bank" credit: they submit a screenshot of the external balance
  plus the hours they declare. A detector extracts the account holder's
  name, the hours, and a confidence score; a heuristic gate turns that
  into an advisory recommendation. The administrator's confirmation is
  the authoritative final step.

    pending --Confirm(approve)--> approved  (record approved, budget-checked)
    pending --Confirm(reject)---> rejected  (no ledger effect)

FAIL-CLOSED IDENTITY CHECK:
  A mismatch between the claimant and the detected name is an
  unconditional automatic rejection, regardless of confidence or hours
  match. The heuristic must never approve a claim whose detected identity
  differs from the submitter, and an identity-rejected claim is terminal:
  the same proof is never retried.

POLICY (applied uniformly):
  An automated approve recommendation creates a pending_admin overtime
  record - a human always confirms before the ledger is charged. The
  recommendation and the final status are separate fields; the status is
  the only source of truth.

STORAGE MINIMIZATION:
  The proof reference is cleared on any terminal decision, approve or
  reject. Disposed claims keep their numbers, not their images.
*/
package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/overtime-engine/engine"
)

// Heuristic gate calibration.
const (
	// MinConfidence is the lowest detector confidence the gate will
	// recommend approval on.
	MinConfidence = 75
	// MaxPlausibleHours bounds a believable single-holiday bank credit.
	MaxPlausibleHours = 12.0
	// MaxDiscrepancyHours is the tolerated gap between declared and
	// detected hours.
	MaxDiscrepancyHours = 0.5
)

// DetectionResult is what the proof detector extracted from the image.
type DetectionResult struct {
	Name       string
	Hours      engine.Hours
	Confidence int
}

// Detector analyzes an hour-bank proof image. Implementations live outside
// this package (detector.Genai in production); tests inject stubs.
type Detector interface {
	Analyze(ctx context.Context, image []byte) (DetectionResult, error)
}

// Compensations manages the hour-bank claim lifecycle.
type Compensations struct {
	store    Store
	ledger   *BudgetLedger
	detector Detector
	locks    *PairLock
	clock    engine.Clock
}

func NewCompensations(store Store, ledger *BudgetLedger, detector Detector, locks *PairLock, clock engine.Clock) *Compensations {
	return &Compensations{store: store, ledger: ledger, detector: detector, locks: locks, clock: clock}
}

// SubmitClaim validates and registers an hour-bank claim, runs the
// detector, and applies the heuristic gate. The claim lands pending for
// the administrator unless the identity check fails, which rejects it
// outright.
func (c *Compensations) SubmitClaim(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID, declared engine.Hours, proof []byte) (*HourBankClaim, error) {
	if !declared.IsHalfStep() || !declared.IsPositive() {
		return nil, &engine.ValidationError{Field: "declared_hours", Message: "must be a positive multiple of 0.5"}
	}
	if len(proof) == 0 {
		return nil, &engine.ValidationError{Field: "proof", Message: "required"}
	}

	employee, err := c.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("employee %s: %w", employeeID, engine.ErrNotFound)
	}
	holiday, err := c.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, err
	}
	if holiday == nil {
		return nil, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrNotFound)
	}
	if !holiday.Active {
		return nil, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrHolidayInactive)
	}
	now := c.clock.Now()
	if now.After(holiday.Deadline) {
		return nil, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrDeadlinePassed)
	}

	claim := HourBankClaim{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		HolidayID:     holidayID,
		DeclaredHours: declared,
		ProofRef:      uuid.NewString(),
		Status:        ClaimPending,
		CreatedAt:     now,
	}

	unlock := c.locks.Lock(employeeID, holidayID)
	defer unlock()

	detection, err := c.detector.Analyze(ctx, proof)
	if err != nil {
		// The detector is advisory. Unavailable detection means no
		// automated approval - the admin reviews the claim cold.
		claim.Recommendation = RecommendReject
		claim.Reason = "proof analysis unavailable: " + err.Error()
		return &claim, c.store.SaveClaim(ctx, claim)
	}

	claim.DetectedHours = detection.Hours
	claim.Confidence = detection.Confidence

	if !nameMatches(employee.Name, detection.Name) {
		// Fail closed: identity mismatch ends the claim here, no matter
		// how good the other signals look.
		claim.Recommendation = RecommendReject
		claim.Reason = engine.ErrIdentityMismatch.Error()
		claim.Status = ClaimRejected
		claim.ProofRef = ""
		claim.DecidedAt = &now
		return &claim, c.store.SaveClaim(ctx, claim)
	}

	claim.Recommendation, claim.Reason = recommend(declared, detection)

	if claim.Recommendation == RecommendApprove {
		record := &OvertimeRecord{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			HolidayID:   holidayID,
			HolidayName: holiday.Name,
			Date:        holiday.Date,
			Source:      SourceHourBank,
			Label:       fmt.Sprintf("hour bank credit (%sh)", declared),
			Hours:       declared,
			Status:      RecordPendingAdmin,
			ProofRef:    claim.ProofRef,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.ledger.Post(ctx, record); err != nil {
			return nil, err
		}
		claim.RecordID = record.ID
	}

	if err := c.store.SaveClaim(ctx, claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// Confirm applies the administrator's final disposition. Approve charges
// the ledger (budget re-checked); reject has no ledger effect. Both clear
// the proof and are once-only.
func (c *Compensations) Confirm(ctx context.Context, claimID string, approve bool) (*HourBankClaim, *OvertimeRecord, error) {
	claim, err := c.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	if claim == nil {
		return nil, nil, fmt.Errorf("claim %s: %w", claimID, engine.ErrNotFound)
	}
	if claim.Status != ClaimPending {
		return nil, nil, fmt.Errorf("claim %s is %s: %w", claimID, claim.Status, engine.ErrDecisionFinal)
	}

	// A claim with a record rides the record's decision path, which also
	// syncs the claim (ledger.Decide re-checks the record status under the
	// pair lock). A record-less claim - the recommendation was reject - is
	// decided directly here.
	if claim.RecordID != "" {
		record, err := c.ledger.Decide(ctx, claim.RecordID, approve)
		if err != nil {
			return nil, nil, err
		}
		claim, err = c.store.GetClaim(ctx, claimID)
		if err != nil {
			return nil, nil, err
		}
		return claim, record, nil
	}

	unlock := c.locks.Lock(claim.EmployeeID, claim.HolidayID)
	defer unlock()

	// Re-read under the lock: a concurrent confirmation may have landed
	// between the pending check and the lock.
	claim, err = c.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	if claim.Status != ClaimPending {
		return nil, nil, fmt.Errorf("claim %s is %s: %w", claimID, claim.Status, engine.ErrDecisionFinal)
	}

	now := c.clock.Now()
	var record *OvertimeRecord
	if approve {
		holiday, err := c.store.GetHoliday(ctx, claim.HolidayID)
		if err != nil {
			return nil, nil, err
		}
		record = &OvertimeRecord{
			ID:          uuid.NewString(),
			EmployeeID:  claim.EmployeeID,
			HolidayID:   claim.HolidayID,
			HolidayName: holiday.Name,
			Date:        holiday.Date,
			Source:      SourceHourBank,
			Label:       fmt.Sprintf("hour bank credit (%sh)", claim.DeclaredHours),
			Hours:       claim.DeclaredHours,
			Status:      RecordApproved,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.ledger.Post(ctx, record); err != nil {
			return nil, nil, err
		}
		claim.RecordID = record.ID
		claim.Status = ClaimApproved
	} else {
		claim.Status = ClaimRejected
	}
	claim.ProofRef = ""
	claim.DecidedAt = &now
	if err := c.store.SaveClaim(ctx, *claim); err != nil {
		return nil, nil, err
	}
	return claim, record, nil
}

// recommend applies the plausibility heuristics. Identity has already been
// verified by the caller; this only weighs confidence and hour agreement.
func recommend(declared engine.Hours, d DetectionResult) (Recommendation, string) {
	if d.Confidence < MinConfidence {
		return RecommendReject, fmt.Sprintf("confidence %d below %d", d.Confidence, MinConfidence)
	}
	if !d.Hours.IsPositive() || d.Hours.GreaterThan(engine.NewHours(MaxPlausibleHours)) {
		return RecommendReject, fmt.Sprintf("detected hours %s outside plausible range (0, %v]", d.Hours, MaxPlausibleHours)
	}
	if declared.AbsDiff(d.Hours).GreaterThan(engine.NewHours(MaxDiscrepancyHours)) {
		return RecommendReject, fmt.Sprintf("declared %s differs from detected %s by more than %vh", declared, d.Hours, MaxDiscrepancyHours)
	}
	return RecommendApprove, "name match, confident detection, hours agree"
}

// nameMatches compares claimant and detected names ignoring case and
// whitespace runs.
func nameMatches(claimant, detected string) bool {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	a, b := norm(claimant), norm(detected)
	return a != "" && a == b
}
