package metadata

import "fmt"

// AssetStatus is the custody state of a physical asset.
type AssetStatus string

const (
	AssetInStock  AssetStatus = "in_stock"
	AssetAssigned AssetStatus = "assigned"
	AssetInRepair AssetStatus = "in_repair"
	AssetLost     AssetStatus = "lost"
	AssetRetired  AssetStatus = "retired"
	AssetDisposed AssetStatus = "disposed"
)

var assetStatusLabels = map[AssetStatus]string{
	AssetInStock:  "In stock",
	AssetAssigned: "Assigned",
	AssetInRepair: "In repair",
	AssetLost:     "Lost",
	AssetRetired:  "Retired",
	AssetDisposed: "Disposed",
}

func NewAssetStatus(value string) (AssetStatus, error) {
	status := AssetStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid asset status: %s", value)
	}
	return status, nil
}

func (s AssetStatus) IsValid() bool {
	_, ok := assetStatusLabels[s]
	return ok
}

func (s AssetStatus) Label() string {
	if label, ok := assetStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s AssetStatus) String() string {
	return string(s)
}

func (s AssetStatus) CanBeAssigned() bool {
	return s == AssetInStock
}

func (s AssetStatus) CanBeReturned() bool {
	return s == AssetAssigned
}

func (s AssetStatus) CanBeTransferred() bool {
	return s == AssetAssigned
}

func (s AssetStatus) CanBeSentForRepair() bool {
	return s.IsValid() && !s.IsDecommissioned()
}

func (s AssetStatus) CanReturnFromRepair() bool {
	return s == AssetInRepair
}

func (s AssetStatus) CanBeMarkedFound() bool {
	return s == AssetLost
}

// Retire and mark-lost are accepted from every status.
func (s AssetStatus) CanBeRetired() bool {
	return s.IsValid()
}

func (s AssetStatus) CanBeMarkedLost() bool {
	return s.IsValid()
}

func (s AssetStatus) CanBeDisposed() bool {
	return s == AssetRetired
}

func (s AssetStatus) CanBeRelocated() bool {
	return s.IsValid() && !s.IsDecommissioned()
}

// CanBeArchived reports whether the asset may be soft deleted.
func (s AssetStatus) CanBeArchived() bool {
	return s.IsDecommissioned()
}

// IsDecommissioned is true for assets that have left active service.
func (s AssetStatus) IsDecommissioned() bool {
	return s == AssetRetired || s == AssetDisposed
}

// IsExpectedOnSite marks the statuses a stock opname expects to find at a location.
func (s AssetStatus) IsExpectedOnSite() bool {
	return s == AssetInStock || s == AssetAssigned
}

// ExpectedOnSiteStatuses lists the statuses snapshotted by a stock opname.
func ExpectedOnSiteStatuses() []AssetStatus {
	return []AssetStatus{AssetInStock, AssetAssigned}
}

// ActiveInventoryStatuses lists the statuses shown in active inventory views.
func ActiveInventoryStatuses() []AssetStatus {
	return []AssetStatus{AssetInStock, AssetAssigned, AssetInRepair, AssetLost}
}

// AssetStatuses lists every status in lifecycle order.
func AssetStatuses() []AssetStatus {
	return []AssetStatus{AssetInStock, AssetAssigned, AssetInRepair, AssetLost, AssetRetired, AssetDisposed}
}

func AssetStatusStrings(statuses []AssetStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return values
}
