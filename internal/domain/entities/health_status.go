package entities

// HealthStatus is the advisory health of a Git hosting service.
type HealthStatus string

const (
	HealthNone    HealthStatus = "none"
	HealthMinor   HealthStatus = "minor"
	HealthMajor   HealthStatus = "major"
	HealthUnknown HealthStatus = "unknown"
)
