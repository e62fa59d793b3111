package metadata

// MovementType identifies the kind of transition recorded in the movement ledger.
type MovementType string

const (
	MovementCreate    MovementType = "create"
	MovementAssign    MovementType = "assign"
	MovementReturn    MovementType = "return"
	MovementTransfer  MovementType = "transfer"
	MovementRepairOut MovementType = "repair_out"
	MovementRepairIn  MovementType = "repair_in"
	MovementLost      MovementType = "lost"
	MovementFound     MovementType = "found"
	MovementRetire    MovementType = "retire"
	MovementDispose   MovementType = "dispose"
	MovementUpdate    MovementType = "update"
)

var movementTypeLabels = map[MovementType]string{
	MovementCreate:    "Registered",
	MovementAssign:    "Assigned",
	MovementReturn:    "Returned",
	MovementTransfer:  "Transferred",
	MovementRepairOut: "Sent for repair",
	MovementRepairIn:  "Returned from repair",
	MovementLost:      "Marked lost",
	MovementFound:     "Found",
	MovementRetire:    "Retired",
	MovementDispose:   "Disposed",
	MovementUpdate:    "Updated",
}

func (t MovementType) IsValid() bool {
	_, ok := movementTypeLabels[t]
	return ok
}

func (t MovementType) Label() string {
	if label, ok := movementTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t MovementType) String() string {
	return string(t)
}
