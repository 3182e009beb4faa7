package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjrosen/mob/internal/mob/domain"
)

// step is one git operation of a scenario body.
type step struct {
	op   string
	args []string
	run  func(ctx context.Context) domain.Outcome
}

// String renders the step as op(arg,...), e.g. push(origin,mob-session).
func (s step) String() string {
	return s.op + "(" + strings.Join(s.args, ",") + ")"
}

// scenarioSteps returns the ordered operations for sc. The rejoining body
// is empty when the wip branch is already checked out.
func scenarioSteps(ops *Operations, s domain.Settings, sc domain.Scenario, topo domain.Topology) []step {
	wip, base, remote := s.WipBranch, s.BaseBranch, s.RemoteName

	deleteWip := step{"deleteBranch", []string{wip}, func(ctx context.Context) domain.Outcome { return ops.DeleteBranch(ctx, wip) }}
	checkoutWip := step{"checkout", []string{wip}, func(ctx context.Context) domain.Outcome { return ops.CheckoutBranch(ctx, wip) }}
	checkoutBase := step{"checkout", []string{base}, func(ctx context.Context) domain.Outcome { return ops.CheckoutBranch(ctx, base) }}
	mergeBase := step{"mergeFastForward", []string{remote, base}, func(ctx context.Context) domain.Outcome { return ops.MergeFastForward(ctx, remote, base) }}
	createWip := step{"createBranch", []string{wip}, func(ctx context.Context) domain.Outcome { return ops.CreateBranch(ctx, wip) }}
	pushWip := step{"push", []string{remote, wip}, func(ctx context.Context) domain.Outcome { return ops.Push(ctx, remote, wip) }}
	trackWip := step{"setUpstream", []string{remote, wip}, func(ctx context.Context) domain.Outcome { return ops.SetUpstream(ctx, remote, wip) }}

	switch sc {
	case domain.ScenarioRejoining:
		if topo.IsMobProgramming {
			return nil
		}
		return []step{deleteWip, checkoutWip, trackWip}
	case domain.ScenarioCreateFromBase:
		return []step{checkoutBase, mergeBase, createWip, checkoutWip, pushWip}
	case domain.ScenarioJoining:
		return []step{checkoutWip, trackWip}
	case domain.ScenarioPurgeAndRecreate:
		return []step{deleteWip, checkoutBase, mergeBase, createWip, checkoutWip, pushWip}
	default:
		return nil
	}
}

// announcement is the log line opening a scenario body.
func announcement(s domain.Settings, sc domain.Scenario, topo domain.Topology) string {
	switch sc {
	case domain.ScenarioRejoining:
		if topo.IsMobProgramming {
			return "Rejoining mob session: already on " + s.WipBranch
		}
		return "Rejoining mob session on " + s.RemoteWipBranch()
	case domain.ScenarioCreateFromBase:
		return fmt.Sprintf("Creating wip branch %s from base branch %s", s.WipBranch, s.RemoteBaseBranch())
	case domain.ScenarioJoining:
		return "Joining mob session on " + s.RemoteWipBranch()
	case domain.ScenarioPurgeAndRecreate:
		return fmt.Sprintf("Purging local branch %s and starting a new wip branch from %s", s.WipBranch, s.RemoteBaseBranch())
	default:
		return "Unknown scenario"
	}
}
