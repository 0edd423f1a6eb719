package dronestorage

// Stage picks where in a tick a scheduled task or loop runs. Control commits
// run in Default and reconciliation in After, so a reconcile pass always
// sees the sessions committed earlier in the same tick.
type Stage int

const (
	Before Stage = iota
	Default
	After

	stageCount
)

var stageNames = [stageCount]string{"before", "default", "after"}

// orDefault returns s, or Default when s is not a known stage.
func (s Stage) orDefault() Stage {
	if s < Before || s >= stageCount {
		return Default
	}
	return s
}

func (s Stage) String() string {
	if s < Before || s >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}
