package models

import (
	"time"

	"siap/pkg/metadata"
)

type AssetRequest struct {
	ID               int                    `json:"id" db:"id"`
	RequestNumber    string                 `json:"request_number" db:"request_number"`
	RequesterID      int                    `json:"requester_id" db:"requester_id"`
	Type             metadata.RequestType   `json:"request_type" db:"request_type"`
	Status           metadata.RequestStatus `json:"status" db:"status"`
	Justification    *string                `json:"justification,omitempty" db:"justification"`
	RejectionReason  *string                `json:"rejection_reason,omitempty" db:"rejection_reason"`
	SubmittedAt      *time.Time             `json:"submitted_at,omitempty" db:"submitted_at"`
	FulfilledBy      *int                   `json:"fulfilled_by,omitempty" db:"fulfilled_by"`
	FulfilledAt      *time.Time             `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	FulfillmentNotes *string                `json:"fulfillment_notes,omitempty" db:"fulfillment_notes"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
	Items            []RequestItem          `json:"items,omitempty" db:"-"`
	Approvals        []Approval             `json:"approvals,omitempty" db:"-"`
}

func (r *AssetRequest) IsRequester(userID int) bool {
	return r.RequesterID == userID
}

func (r *AssetRequest) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   r.ID,
		ResourceType: "asset_request",
	}
}

type RequestItem struct {
	ID               int     `json:"id" db:"id"`
	RequestID        int     `json:"request_id" db:"request_id"`
	CategoryID       *int    `json:"category_id,omitempty" db:"category_id"`
	Quantity         int     `json:"quantity" db:"quantity"`
	Specification    *string `json:"specification,omitempty" db:"specification"`
	AssetID          *int    `json:"asset_id,omitempty" db:"asset_id"`
	TransferToUserID *int    `json:"transfer_to_user_id,omitempty" db:"transfer_to_user_id"`
	FulfilledAssetID *int    `json:"fulfilled_asset_id,omitempty" db:"fulfilled_asset_id"`
	Notes            *string `json:"notes,omitempty" db:"notes"`
}

type Approval struct {
	ID         int                     `json:"id" db:"id"`
	RequestID  int                     `json:"request_id" db:"request_id"`
	ApproverID int                     `json:"approver_id" db:"approver_id"`
	Sequence   int                     `json:"sequence" db:"sequence"`
	Status     metadata.ApprovalStatus `json:"status" db:"status"`
	Remarks    *string                 `json:"remarks,omitempty" db:"remarks"`
	DecidedBy  *int                    `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt  *time.Time              `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt  time.Time               `json:"created_at" db:"created_at"`
}

// ApproverLoad is an approver candidate with the number of approvals waiting on them.
type ApproverLoad struct {
	UserID       int    `json:"user_id" db:"user_id"`
	Username     string `json:"username" db:"username"`
	Role         string `json:"role" db:"role"`
	PendingCount int    `json:"pending_count" db:"pending_count"`
}

type RequestFilter struct {
	Status      string
	Type        string
	RequesterID *int
	Limit       int
	Offset      int
}
