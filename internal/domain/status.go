package domain

// Status is the terminal state of a provisioning operation.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Info carries the user-visible and internal key/value details attached to
// a provisioning status.
type Info struct {
	Public  map[string]any
	Private map[string]any
}

// ProvisioningStatus is the terminal result of a provision, unprovision, or
// ACL update operation.
type ProvisioningStatus struct {
	Status Status
	Result string
	Info   Info
}

// Completed builds a COMPLETED status with the given public info.
func Completed(public map[string]any) *ProvisioningStatus {
	return &ProvisioningStatus{
		Status: StatusCompleted,
		Info:   Info{Public: public, Private: map[string]any{}},
	}
}

// Failed builds a FAILED status with the given public info. Used for
// aggregated partial failures; successful sub-operations are not rolled back.
func Failed(public map[string]any) *ProvisioningStatus {
	return &ProvisioningStatus{
		Status: StatusFailed,
		Info:   Info{Public: public, Private: map[string]any{}},
	}
}

// InfoCell renders a typed public-info entry the platform UI displays.
func InfoCell(label, value string) map[string]any {
	return map[string]any{"type": "string", "label": label, "value": value}
}

// ReverseProvisioningStatus is the terminal result of a reverse
// provisioning read, carrying descriptor-shaped update parameters.
type ReverseProvisioningStatus struct {
	Status  Status
	Updates map[string]any
}
