package auth

import "fmt"

// Tier is a named authorization threshold. Higher tiers include the
// permissions of lower ones.
type Tier int

const (
	TierStandard Tier = iota
	TierSupervisor
	TierMaster
)

// Minimum levels per tier. Checks are strict greater-than, so a supervisor
// is any principal with level 11 or above and a master needs 101 or above.
const (
	SupervisorMinLevel = 10
	MasterMinLevel     = 100
)

func (t Tier) String() string {
	switch t {
	case TierSupervisor:
		return "Supervisor"
	case TierMaster:
		return "Master"
	default:
		return "Standard"
	}
}

// InsufficientLevelError reports a principal that does not reach the
// required tier.
type InsufficientLevelError struct {
	Required Tier
	Level    int
}

func (e *InsufficientLevelError) Error() string {
	return fmt.Sprintf("insufficient user level (%s required)", e.Required)
}

// RequireLevel checks p against the tier threshold.
func RequireLevel(p Principal, required Tier) error {
	switch required {
	case TierSupervisor:
		if p.Level > SupervisorMinLevel {
			return nil
		}
	case TierMaster:
		if p.Level > MasterMinLevel {
			return nil
		}
	default:
		return nil
	}
	return &InsufficientLevelError{Required: required, Level: p.Level}
}
