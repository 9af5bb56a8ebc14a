package enum

type JobOutcome string

const (
	JobOutcomeNone    JobOutcome = "NONE"
	JobOutcomeRunning JobOutcome = "RUNNING"
	JobOutcomeSuccess JobOutcome = "SUCCESS"
	JobOutcomeFailed  JobOutcome = "FAILED"
)
