package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

var proofImage = []byte("fake-png-bytes")

func TestSubmitClaimValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// WHEN claims with bad inputs are submitted THEN each fails validation
	_, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(0.7), proofImage)
	assert.True(t, errors.Is(err, engine.ErrValidation), "non half-step")

	_, err = f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(0), proofImage)
	assert.True(t, errors.Is(err, engine.ErrValidation), "zero hours")

	_, err = f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), nil)
	assert.True(t, errors.Is(err, engine.ErrValidation), "missing proof")

	_, err = f.comps.SubmitClaim(ctx, "ghost", testHoliday, engine.NewHours(2.5), proofImage)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSubmitClaimAfterDeadline(t *testing.T) {
	// GIVEN the clock past the holiday's submission deadline
	f := newFixture()
	ctx := context.Background()
	f.clock.set(time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC))

	// WHEN a claim is submitted
	_, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)

	// THEN it is refused outright
	assert.ErrorIs(t, err, engine.ErrDeadlinePassed)
}

func TestClaimFullApprovalFlow(t *testing.T) {
	// GIVEN the detector confirms the claimant with matching hours
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 90,
	}

	// WHEN a 2.5h claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// THEN the recommendation is approve, a pending_admin record is linked,
	// and nothing has been charged yet
	assert.Equal(t, tracker.RecommendApprove, claim.Recommendation)
	assert.Equal(t, tracker.ClaimPending, claim.Status)
	require.NotEmpty(t, claim.RecordID)

	record, err := f.store.GetRecord(ctx, claim.RecordID)
	require.NoError(t, err)
	assert.Equal(t, tracker.RecordPendingAdmin, record.Status)
	assert.Equal(t, tracker.SourceHourBank, record.Source)
	assert.Equal(t, "hour bank credit (2.5h)", record.Label)

	stats, err := f.ledger.Stats(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	assert.True(t, stats.Used.IsZero())

	// WHEN the administrator confirms the claim
	decided, record, err := f.comps.Confirm(ctx, claim.ID, true)
	require.NoError(t, err)

	// THEN record and claim both go approved, the proof is dropped, and the
	// 2.5h land as compensated budget
	assert.Equal(t, tracker.ClaimApproved, decided.Status)
	assert.Empty(t, decided.ProofRef)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, tracker.RecordApproved, record.Status)
	assert.Empty(t, record.ProofRef)

	stats, err = f.ledger.Stats(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	assert.True(t, stats.Used.Equal(engine.NewHours(2.5)))
	assert.True(t, stats.Compensated.Equal(engine.NewHours(2.5)))

	// AND any further decision fails as already-final
	_, _, err = f.comps.Confirm(ctx, claim.ID, false)
	assert.ErrorIs(t, err, engine.ErrDecisionFinal)
}

func TestNameMismatchAlwaysRejects(t *testing.T) {
	// GIVEN a detection with perfect confidence and exact hours but a
	// different account holder
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "John Porter", Hours: engine.NewHours(2.5), Confidence: 95,
	}

	// WHEN the claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// THEN the identity mismatch terminates the claim immediately: no
	// pending review, no record, proof dropped
	assert.Equal(t, tracker.ClaimRejected, claim.Status)
	assert.Equal(t, tracker.RecommendReject, claim.Recommendation)
	assert.Empty(t, claim.RecordID)
	assert.Empty(t, claim.ProofRef)
	require.NotNil(t, claim.DecidedAt)

	records, err := f.store.ListRecords(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	assert.Empty(t, records)

	// AND the same proof cannot be revived through confirmation
	_, _, err = f.comps.Confirm(ctx, claim.ID, true)
	assert.ErrorIs(t, err, engine.ErrDecisionFinal)
}

func TestNameMatchIgnoresCaseAndSpacing(t *testing.T) {
	// GIVEN a detection whose name differs only in case and whitespace
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "  jane   PORTER ", Hours: engine.NewHours(2), Confidence: 88,
	}

	// WHEN the claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2), proofImage)
	require.NoError(t, err)

	// THEN the normalization accepts the identity
	assert.Equal(t, tracker.RecommendApprove, claim.Recommendation)
	assert.Equal(t, tracker.ClaimPending, claim.Status)
}

func TestLowConfidenceRecommendsReject(t *testing.T) {
	// GIVEN a detection one point below the confidence floor
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 74,
	}

	// WHEN the claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// THEN the gate recommends rejection but the claim stays reviewable
	assert.Equal(t, tracker.RecommendReject, claim.Recommendation)
	assert.Equal(t, tracker.ClaimPending, claim.Status)
	assert.Empty(t, claim.RecordID)
	assert.Contains(t, claim.Reason, "confidence")
}

func TestDiscrepancyBeyondToleranceRecommendsReject(t *testing.T) {
	// GIVEN declared 2.5h but detected 3.5h
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(3.5), Confidence: 90,
	}

	// WHEN the claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// THEN the hour gap exceeds the 0.5h tolerance
	assert.Equal(t, tracker.RecommendReject, claim.Recommendation)
	assert.Equal(t, tracker.ClaimPending, claim.Status)
}

func TestImplausibleDetectedHoursRecommendReject(t *testing.T) {
	// GIVEN a detection of 13h, beyond any believable single-holiday credit
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(13), Confidence: 95,
	}

	// WHEN a 12.5h declaration rides within the discrepancy tolerance
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(12.5), proofImage)
	require.NoError(t, err)

	// THEN the plausibility bound rejects regardless of agreement
	assert.Equal(t, tracker.RecommendReject, claim.Recommendation)
	assert.Contains(t, claim.Reason, "plausible")
}

func TestDetectorFailureLeavesClaimForColdReview(t *testing.T) {
	// GIVEN the detector is unavailable
	f := newFixture()
	ctx := context.Background()
	f.detector.err = errors.New("upstream timeout")

	// WHEN the claim is submitted
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// THEN no automated approval happens; the admin reviews it cold
	assert.Equal(t, tracker.RecommendReject, claim.Recommendation)
	assert.Contains(t, claim.Reason, "unavailable")
	assert.Equal(t, tracker.ClaimPending, claim.Status)
	assert.Empty(t, claim.RecordID)
}

func TestAdminOverridesRejectRecommendation(t *testing.T) {
	// GIVEN a reject-recommended claim (low confidence), still pending
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2), Confidence: 60,
	}
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2), proofImage)
	require.NoError(t, err)
	require.Equal(t, tracker.RecommendReject, claim.Recommendation)

	// WHEN the administrator approves it anyway
	decided, record, err := f.comps.Confirm(ctx, claim.ID, true)
	require.NoError(t, err)

	// THEN an approved record is created now, budget-checked, and charged
	assert.Equal(t, tracker.ClaimApproved, decided.Status)
	require.NotNil(t, record)
	assert.Equal(t, tracker.RecordApproved, record.Status)

	stats, err := f.ledger.Stats(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	assert.True(t, stats.Compensated.Equal(engine.NewHours(2)))
}

func TestConfirmRejectHasNoLedgerEffect(t *testing.T) {
	// GIVEN an approve-recommended claim with its pending record
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 90,
	}
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)

	// WHEN the administrator rejects it
	decided, _, err := f.comps.Confirm(ctx, claim.ID, false)
	require.NoError(t, err)

	// THEN claim and record both land rejected with proofs dropped and the
	// budget untouched
	assert.Equal(t, tracker.ClaimRejected, decided.Status)
	assert.Empty(t, decided.ProofRef)

	record, err := f.store.GetRecord(ctx, claim.RecordID)
	require.NoError(t, err)
	assert.Equal(t, tracker.RecordRejectedAdmin, record.Status)
	assert.Empty(t, record.ProofRef)

	stats, err := f.ledger.Stats(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	assert.True(t, stats.Used.IsZero())
}

func TestConfirmApproveRechecksBudget(t *testing.T) {
	// GIVEN an approve-recommended 2.5h claim and a budget that has since
	// filled to 2h remaining
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 90,
	}
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)
	require.NoError(t, f.postApproved(ctx, "prior", engine.NewHours(2)))

	// WHEN the administrator confirms the claim
	_, _, err = f.comps.Confirm(ctx, claim.ID, true)

	// THEN the budget re-check rejects it and the claim stays pending
	var budgetErr *engine.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.True(t, budgetErr.Remaining.Equal(engine.NewHours(2)))

	stored, err := f.store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, tracker.ClaimPending, stored.Status)
}

func TestRecordDecisionSyncsOwningClaim(t *testing.T) {
	// GIVEN an approve-recommended claim whose record sits in the admin's
	// pending-records queue
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(1.5), Confidence: 85,
	}
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(1.5), proofImage)
	require.NoError(t, err)

	// WHEN the admin decides the RECORD directly instead of the claim
	_, err = f.ledger.Decide(ctx, claim.RecordID, true)
	require.NoError(t, err)

	// THEN the owning claim moves in lockstep
	stored, err := f.store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, tracker.ClaimApproved, stored.Status)
	assert.Empty(t, stored.ProofRef)
	require.NotNil(t, stored.DecidedAt)
}

// staleClaimStore serves a captured claim snapshot for a limited number of
// reads, mimicking a second admin whose view predates a concurrent decision.
type staleClaimStore struct {
	tracker.Store
	stale     tracker.HourBankClaim
	remaining int
}

func (s *staleClaimStore) GetClaim(ctx context.Context, id string) (*tracker.HourBankClaim, error) {
	if s.remaining > 0 && id == s.stale.ID {
		s.remaining--
		out := s.stale
		return &out, nil
	}
	return s.Store.GetClaim(ctx, id)
}

func TestConfirmIsOnceOnlyUnderStaleRead(t *testing.T) {
	// GIVEN a record-less pending claim one admin has already approved
	f := newFixture()
	ctx := context.Background()
	f.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 60,
	}
	claim, err := f.comps.SubmitClaim(ctx, testEmployee, testHoliday, engine.NewHours(2.5), proofImage)
	require.NoError(t, err)
	require.Empty(t, claim.RecordID)
	pending := *claim

	_, _, err = f.comps.Confirm(ctx, claim.ID, true)
	require.NoError(t, err)

	// WHEN a second admin confirms through a view that still shows pending
	stale := &staleClaimStore{Store: f.store, stale: pending, remaining: 1}
	comps := tracker.NewCompensations(stale, f.ledger, f.detector, f.locks, f.clock)
	_, _, err = comps.Confirm(ctx, claim.ID, true)

	// THEN the re-check under the pair lock catches the landed decision
	require.ErrorIs(t, err, engine.ErrDecisionFinal)

	// AND exactly one approved record exists for the single proof
	records, err := f.store.ListRecords(ctx, testEmployee, testHoliday)
	require.NoError(t, err)
	approved := 0
	for _, r := range records {
		if r.Status == tracker.RecordApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
}
