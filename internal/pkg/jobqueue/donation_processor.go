package jobqueue

import (
	"context"
	"fmt"
)

// DonationReconciler settles Pending donations against the payment provider.
type DonationReconciler interface {
	PendingReferences() ([]string, error)
	ReconcilePending(ctx context.Context, reference string) error
}

// DonationProcessor handles donation_reconcile jobs.
func DonationProcessor(r DonationReconciler) Processor {
	return func(ctx context.Context, job *Job) error {
		payload, err := DonationReconcileJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("decode donation payload: %w", err)
		}
		if payload.Reference == "" {
			return fmt.Errorf("donation job %s has no reference", job.ID)
		}
		return r.ReconcilePending(ctx, payload.Reference)
	}
}

// EnqueuePendingDonations queues one reconcile job per stale Pending donation.
func EnqueuePendingDonations(ctx context.Context, q *Queue, r DonationReconciler) (int, error) {
	refs, err := r.PendingReferences()
	if err != nil {
		return 0, err
	}
	for i, ref := range refs {
		if _, err := q.EnqueueJob(ctx, JobTypeDonationReconcile, DonationReconcileJobPayload{Reference: ref}.ToMap()); err != nil {
			return i, err
		}
	}
	return len(refs), nil
}
