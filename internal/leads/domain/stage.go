package domain

// Stage is how far a submission got through intake.
type Stage string

const (
	StageReceived  Stage = "RECEIVED"
	StageValidated Stage = "VALIDATED"
	StageStored    Stage = "STORED"
	StageNotified  Stage = "NOTIFIED"
	StageMessaged  Stage = "MESSAGED"
	StageReported  Stage = "REPORTED"
	StageComplete  Stage = "COMPLETE"
	StageError     Stage = "ERROR"
)

var nextStage = map[Stage]Stage{
	StageReceived:  StageValidated,
	StageValidated: StageStored,
	StageStored:    StageNotified,
	StageNotified:  StageMessaged,
	StageMessaged:  StageReported,
	StageReported:  StageComplete,
}

// Next returns the stage that follows s on success. Terminal stages return
// themselves.
func (s Stage) Next() Stage {
	if n, ok := nextStage[s]; ok {
		return n
	}
	return s
}

// CanFail reports whether the work done while leaving s may abort intake.
// Reporting is fire-and-forget, so REPORTED and the terminal stages cannot.
func (s Stage) CanFail() bool {
	switch s {
	case StageReceived, StageValidated, StageStored, StageNotified:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition exists.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}
