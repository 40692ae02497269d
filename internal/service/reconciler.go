package service

import "applicant-review-api/internal/model"

// EffectiveStatus computes the status the rest of the system should act
// on when the ledger and the capture store may disagree. The ledger wins
// whenever a row exists; without one the external status is derived via
// the fixed mapping. A submission still marked "new" externally with no
// ledger row predates the ledger (or has not been processed yet) and is
// treated as pending.
//
// Pure and side-effect free; safe to call concurrently and repeatedly.
func EffectiveStatus(rec *model.StatusRecord, external model.ExternalStatus) model.ReviewStatus {
	if rec != nil {
		return rec.ReviewStatus
	}
	return model.ReviewStatusFromExternal(external)
}

// EffectiveStatusOfSubmission is a convenience wrapper for callers that
// already hold the submission row.
func EffectiveStatusOfSubmission(rec *model.StatusRecord, sub *model.Submission) model.ReviewStatus {
	if sub == nil {
		if rec != nil {
			return rec.ReviewStatus
		}
		return model.StatusPending
	}
	return EffectiveStatus(rec, sub.ExternalStatus)
}
