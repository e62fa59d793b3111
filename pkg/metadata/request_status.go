package metadata

import "fmt"

// RequestStatus is the workflow state of an asset request.
type RequestStatus string

const (
	RequestDraft              RequestStatus = "draft"
	RequestSubmitted          RequestStatus = "submitted"
	RequestPendingApproval    RequestStatus = "pending_approval"
	RequestApproved           RequestStatus = "approved"
	RequestPendingFulfillment RequestStatus = "pending_fulfillment"
	RequestFulfilled          RequestStatus = "fulfilled"
	RequestClosed             RequestStatus = "closed"
	RequestRejected           RequestStatus = "rejected"
	RequestCancelled          RequestStatus = "cancelled"
)

var requestStatusLabels = map[RequestStatus]string{
	RequestDraft:              "Draft",
	RequestSubmitted:          "Submitted",
	RequestPendingApproval:    "Pending approval",
	RequestApproved:           "Approved",
	RequestPendingFulfillment: "Pending fulfillment",
	RequestFulfilled:          "Fulfilled",
	RequestClosed:             "Closed",
	RequestRejected:           "Rejected",
	RequestCancelled:          "Cancelled",
}

func NewRequestStatus(value string) (RequestStatus, error) {
	status := RequestStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid request status: %s", value)
	}
	return status, nil
}

func (s RequestStatus) IsValid() bool {
	_, ok := requestStatusLabels[s]
	return ok
}

func (s RequestStatus) Label() string {
	if label, ok := requestStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s RequestStatus) String() string {
	return string(s)
}

func (s RequestStatus) CanSubmit() bool {
	return s == RequestDraft
}

func (s RequestStatus) CanBeEdited() bool {
	return s == RequestDraft
}

func (s RequestStatus) CanBeDecided() bool {
	return s == RequestPendingApproval
}

func (s RequestStatus) CanBeFulfilled() bool {
	return s == RequestApproved
}

func (s RequestStatus) CanCancel() bool {
	switch s {
	case RequestDraft, RequestSubmitted, RequestPendingApproval:
		return true
	default:
		return false
	}
}

func (s RequestStatus) CanBeClosed() bool {
	return s == RequestFulfilled
}

func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestClosed, RequestRejected, RequestCancelled:
		return true
	default:
		return false
	}
}

// RequestType is what the requester is asking for.
type RequestType string

const (
	RequestTypeNew      RequestType = "new"
	RequestTypeReturn   RequestType = "return"
	RequestTypeRepair   RequestType = "repair"
	RequestTypeTransfer RequestType = "transfer"
)

func NewRequestType(value string) (RequestType, error) {
	requestType := RequestType(value)
	if !requestType.IsValid() {
		return "", fmt.Errorf(
			"invalid request type %q, only valid values are: %s, %s, %s, %s",
			value, RequestTypeNew, RequestTypeReturn, RequestTypeRepair, RequestTypeTransfer,
		)
	}
	return requestType, nil
}

func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeNew, RequestTypeReturn, RequestTypeRepair, RequestTypeTransfer:
		return true
	default:
		return false
	}
}

// RequiresCategory is true when items describe something to procure rather than an existing asset.
func (t RequestType) RequiresCategory() bool {
	return t == RequestTypeNew
}

func (t RequestType) RequiresAsset() bool {
	return t == RequestTypeReturn || t == RequestTypeRepair || t == RequestTypeTransfer
}

func (t RequestType) RequiresTransferTarget() bool {
	return t == RequestTypeTransfer
}

func (t RequestType) String() string {
	return string(t)
}

// ApprovalStatus is the state of one approval slot.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsDecided() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

func (s ApprovalStatus) String() string {
	return string(s)
}
