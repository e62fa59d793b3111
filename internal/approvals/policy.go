package approvals

import (
	"context"
	"sort"

	custom_error "siap/pkg/errors"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/doug-martin/goqu/v9"
)

// CandidateSource lists active users holding one of eligibleRoles, with their pending approval counts.
type CandidateSource interface {
	ListApproverCandidates(ctx context.Context, tx *goqu.TxDatabase, eligibleRoles []roles.Role) ([]models.ApproverLoad, error)
}

// Policy assigns each submitted request to the least loaded approver.
type Policy struct {
	candidates CandidateSource
}

func NewPolicy(candidates CandidateSource) *Policy {
	return &Policy{candidates: candidates}
}

// SelectApprover picks the candidate with the fewest pending approvals; ties go to the lowest user id.
// The requester never approves their own request.
func (p *Policy) SelectApprover(ctx context.Context, tx *goqu.TxDatabase, requestID int, requesterID int) (*models.ApproverLoad, error) {
	candidates, err := p.candidates.ListApproverCandidates(ctx, tx, roles.ApproverRoles())
	if err != nil {
		return nil, err
	}

	eligible := make([]models.ApproverLoad, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.UserID != requesterID {
			eligible = append(eligible, candidate)
		}
	}

	chosen, ok := LeastLoaded(eligible)
	if !ok {
		return nil, &custom_error.NoApproverAvailableError{RequestID: requestID}
	}
	return &chosen, nil
}

func LeastLoaded(candidates []models.ApproverLoad) (models.ApproverLoad, bool) {
	if len(candidates) == 0 {
		return models.ApproverLoad{}, false
	}

	sorted := append([]models.ApproverLoad(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PendingCount != sorted[j].PendingCount {
			return sorted[i].PendingCount < sorted[j].PendingCount
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	return sorted[0], true
}
