package metadata

import "fmt"

type MaintenanceType string

const (
	MaintenanceScheduled MaintenanceType = "scheduled"
	MaintenanceAdHoc     MaintenanceType = "adhoc"
)

func NewMaintenanceType(value string) (MaintenanceType, error) {
	t := MaintenanceType(value)
	if t != MaintenanceScheduled && t != MaintenanceAdHoc {
		return "", fmt.Errorf("invalid maintenance type %q, only valid values are: %s, %s", value, MaintenanceScheduled, MaintenanceAdHoc)
	}
	return t, nil
}
