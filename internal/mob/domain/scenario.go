package domain

// Scenario identifies one of the four ways a session start can join the
// shared wip branch.
type Scenario int

const (
	// ScenarioUnknown is the zero value; a run that aborts before
	// classification carries it.
	ScenarioUnknown Scenario = iota
	// ScenarioRejoining: wip branch exists locally and on the remote.
	ScenarioRejoining
	// ScenarioCreateFromBase: wip branch exists nowhere.
	ScenarioCreateFromBase
	// ScenarioJoining: wip branch exists only on the remote.
	ScenarioJoining
	// ScenarioPurgeAndRecreate: wip branch exists only locally (stale).
	ScenarioPurgeAndRecreate
)

// String returns the stable identifier used in logs and run history.
func (s Scenario) String() string {
	switch s {
	case ScenarioRejoining:
		return "rejoining"
	case ScenarioCreateFromBase:
		return "create_from_base"
	case ScenarioJoining:
		return "joining"
	case ScenarioPurgeAndRecreate:
		return "purge_and_recreate"
	default:
		return "unknown"
	}
}

// ParseScenario is the inverse of String. Unrecognized input yields ScenarioUnknown.
func ParseScenario(s string) Scenario {
	for _, sc := range []Scenario{ScenarioRejoining, ScenarioCreateFromBase, ScenarioJoining, ScenarioPurgeAndRecreate} {
		if sc.String() == s {
			return sc
		}
	}
	return ScenarioUnknown
}

// Topology is the branch topology snapshot taken once per start attempt.
// It is never cached across attempts.
type Topology struct {
	HasLocalWip      bool
	HasRemoteWip     bool
	IsMobProgramming bool   // current branch is the wip branch
	CurrentBranch    string // informational
}

// Classify maps a topology to its scenario. Only the two existence flags
// take part; IsMobProgramming is consulted inside the rejoining body.
func Classify(t Topology) Scenario {
	switch {
	case t.HasLocalWip && t.HasRemoteWip:
		return ScenarioRejoining
	case !t.HasLocalWip && !t.HasRemoteWip:
		return ScenarioCreateFromBase
	case !t.HasLocalWip && t.HasRemoteWip:
		return ScenarioJoining
	default:
		return ScenarioPurgeAndRecreate
	}
}
