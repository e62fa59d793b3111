package metadata

// OpnameStatus is the state of a stock opname session.
type OpnameStatus string

const (
	OpnameDraft      OpnameStatus = "draft"
	OpnameInProgress OpnameStatus = "in_progress"
	OpnameCompleted  OpnameStatus = "completed"
	OpnameCancelled  OpnameStatus = "cancelled"
)

func (s OpnameStatus) CanStart() bool {
	return s == OpnameDraft
}

func (s OpnameStatus) CanScan() bool {
	return s == OpnameInProgress
}

// CanFinalize allows closing a session that never started; every snapshot row then stays missing.
func (s OpnameStatus) CanFinalize() bool {
	return s == OpnameDraft || s == OpnameInProgress
}

func (s OpnameStatus) CanCancel() bool {
	return s == OpnameDraft || s == OpnameInProgress
}

func (s OpnameStatus) String() string {
	return string(s)
}

// OpnameDetailStatus classifies one asset within an opname session.
type OpnameDetailStatus string

const (
	DetailMissing  OpnameDetailStatus = "missing"
	DetailFound    OpnameDetailStatus = "found"
	DetailUnlisted OpnameDetailStatus = "unlisted"
)

func (s OpnameDetailStatus) String() string {
	return string(s)
}
