package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.trai.ch/zerr"
)

// unit is one build command of one configuration within a pass.
type unit struct {
	config  domain.ConfigRef
	project *domain.Project
	index   int
	command domain.BuildCommand
	context domain.BuildContext
}

func (u unit) key() string {
	return domain.BuilderKey(u.index, u.command.Builder)
}

type instanceKey struct {
	project string
	config  string
	index   int
}

type instance struct {
	spec    uint64
	builder ports.Builder
	reg     registry.Registration
	failed  bool
}

// builderFor returns the builder of a command, instantiating it when the
// command is new or its spec changed. A failed instantiation is returned as
// an error once; the command is then skipped until its spec changes.
func (s *Scheduler) builderFor(u unit) (*instance, error) {
	key := instanceKey{project: u.config.Project, config: u.config.Name, index: u.index}
	spec := specHash(u.command)

	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.instances[key]; ok && inst.spec == spec {
		if inst.failed {
			return nil, nil
		}
		return inst, nil
	}

	inst := &instance{spec: spec}
	s.instances[key] = inst

	reg, err := s.registry.Lookup(u.command.Builder)
	if err == nil {
		inst.reg = reg
		inst.builder, err = reg.Factory(u.config, u.command.Clone())
	}
	if err == nil && inst.builder == nil {
		err = zerr.New("factory returned no builder")
	}
	if err != nil {
		inst.failed = true
		err = zerr.With(zerr.Wrap(err, domain.ErrBuilderInstantiation.Error()), "builder", u.command.Builder)
		return nil, zerr.With(err, "config", u.config.String())
	}
	return inst, nil
}

func specHash(cmd domain.BuildCommand) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(cmd.Builder)
	keys := make([]string, 0, len(cmd.Args))
	for k := range cmd.Args {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(cmd.Args[k])
	}
	var flags [2]byte
	if cmd.Configurable {
		flags[0] = 1
	}
	flags[1] = byte(cmd.Triggers)
	_, _ = d.Write(flags[:])
	return d.Sum64()
}

func (state *passState) executeUnit(u unit) {
	s := state.inv.s

	// Filtering happens before instantiation and before baseline upgrades.
	if !u.command.Builds(state.trigger) {
		return
	}

	inst, err := s.builderFor(u)
	if err != nil {
		s.logger.Error(err)
		state.inv.fail(err)
		return
	}
	if inst == nil {
		return
	}

	report := UnitReport{Config: u.config, Builder: u.key(), Pass: state.pass}
	trigger := s.states.EffectiveTrigger(u.config, u.key(), state.trigger)
	report.Trigger = trigger

	// The rule is computed before acquisition, outside any lock.
	rule := inst.builder.Rule(trigger, u.command.Args)
	lease, err := state.inv.slots.Acquire(state.ctx, rule)
	if err != nil {
		report.Outcome = OutcomeCanceled
		report.Err = err
		state.inv.report(report)
		return
	}
	defer lease.Release()

	start := time.Now()
	ctx, span := s.tracer.Start(state.ctx, u.config.String()+" "+u.command.Builder,
		ports.WithAttribute("kiln.config", u.config.String()),
		ports.WithAttribute("kiln.builder", u.key()),
		ports.WithAttribute("kiln.trigger", trigger.String()),
	)
	defer span.End()

	finish := func(outcome Outcome, err error) {
		report.Outcome = outcome
		report.Err = err
		report.Elapsed = time.Since(start)
		if err != nil && outcome == OutcomeFailed {
			span.RecordError(err)
		}
		span.SetAttribute("kiln.outcome", string(outcome))
		state.inv.report(report)
	}

	// Snapshot only once the rule is held, so the delta reflects every
	// mutation that completed before this unit was admitted.
	tree, err := s.tree.Snapshot(ctx, u.project)
	if err != nil {
		finish(OutcomeFailed, zerr.Wrap(err, domain.ErrSnapshotFailed.Error()))
		return
	}

	baseline := s.states.Baseline(u.config, u.key())
	sess := &session{state: state, unit: u, baseline: baseline}

	req := ports.BuildRequest{
		Config:           u.config,
		Trigger:          trigger,
		RequestedTrigger: state.trigger,
		Args:             u.command.Args,
		Context:          u.context,
		Project:          u.project,
		Session:          sess,
		Output:           span,
	}

	if trigger == domain.TriggerClean {
		err = inst.builder.Clean(ctx, req)
		switch {
		case state.ctx.Err() != nil:
			finish(OutcomeCanceled, state.ctx.Err())
		case err != nil:
			sess.applyForget()
			finish(OutcomeFailed, err)
		default:
			s.states.Discard(u.config, u.key())
			sess.applyForget()
			finish(OutcomeCleaned, nil)
		}
		return
	}

	var base *domain.Snapshot
	if trigger.IsIncremental() && baseline != nil {
		base = baseline.Tree
	}
	req.Delta = state.inv.deltas.Get(u.config, base, tree)
	sess.own = req.Delta
	report.Delta = req.Delta

	// A unit that asked for this pass runs even without changes.
	if trigger.IsIncremental() && req.Delta.Empty() && !inst.reg.CallOnEmptyDelta &&
		!state.rerun[rerunKey{config: u.config, index: u.index}] &&
		!state.interestingChanged(ctx, baseline) {
		finish(OutcomeSkipped, nil)
		return
	}

	interesting, err := inst.builder.Build(ctx, req)
	switch {
	case state.ctx.Err() != nil:
		// A canceled unit leaves no committed state behind.
		finish(OutcomeCanceled, state.ctx.Err())
	case err != nil:
		sess.applyForget()
		finish(OutcomeFailed, err)
	default:
		s.states.Commit(u.config, u.key(), tree, state.observe(ctx, interesting), sess.forgotten())
		finish(OutcomeBuilt, nil)
	}
}

// interestingChanged reports whether any configuration the builder observed
// last time changed since then.
func (state *passState) interestingChanged(ctx context.Context, baseline *domain.BuilderState) bool {
	if baseline == nil {
		return false
	}
	for ref, snap := range baseline.Interesting {
		if !state.delta(ctx, ref, snap).Empty() {
			return true
		}
	}
	return false
}

// delta returns the changes of ref since base. Missing or closed projects
// and unreadable trees yield an empty delta.
func (state *passState) delta(ctx context.Context, ref domain.ConfigRef, base *domain.Snapshot) *domain.Delta {
	s := state.inv.s
	resolved, ok := s.workspace.Resolve(ref)
	if !ok {
		return domain.EmptyDelta(ref)
	}
	project, ok := s.workspace.Project(resolved.Project)
	if !ok {
		return domain.EmptyDelta(resolved)
	}
	cur, err := s.tree.Snapshot(ctx, project)
	if err != nil {
		s.logger.Warn("cannot observe " + resolved.String() + ": " + err.Error())
		return domain.EmptyDelta(resolved)
	}
	return state.inv.deltas.Get(resolved, base, cur)
}

// observe captures the trees of the configurations a builder reported as interesting.
func (state *passState) observe(ctx context.Context, refs []domain.ConfigRef) map[domain.ConfigRef]*domain.Snapshot {
	s := state.inv.s
	var res map[domain.ConfigRef]*domain.Snapshot
	for _, ref := range refs {
		resolved, ok := s.workspace.Resolve(ref)
		if !ok {
			continue
		}
		project, ok := s.workspace.Project(resolved.Project)
		if !ok {
			continue
		}
		snap, err := s.tree.Snapshot(ctx, project)
		if err != nil {
			s.logger.Warn("cannot observe " + resolved.String() + ": " + err.Error())
			continue
		}
		if res == nil {
			res = make(map[domain.ConfigRef]*domain.Snapshot, len(refs))
		}
		res[resolved] = snap
	}
	return res
}

// session is the ports.Session handed to a running builder.
type session struct {
	state    *passState
	unit     unit
	baseline *domain.BuilderState
	own      *domain.Delta

	mu     sync.Mutex
	forget bool
}

func (s *session) RequestRebuild() {
	s.state.inv.requestRebuild(s.unit)
	s.state.inv.cycle.RequestRebuild()
}

func (s *session) ForgetLastBuiltState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget = true
}

func (s *session) Delta(ctx context.Context, ref domain.ConfigRef) *domain.Delta {
	ws := s.state.inv.s.workspace
	if s.own != nil && ws.Same(ref, s.unit.config) {
		return s.own
	}
	var base *domain.Snapshot
	if s.baseline != nil {
		if resolved, ok := ws.Resolve(ref); ok {
			base = s.baseline.Interesting[resolved]
		}
	}
	return s.state.delta(ctx, ref, base)
}

func (s *session) forgotten() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forget
}

// applyForget discards the baseline of a unit that did not commit.
func (s *session) applyForget() {
	if s.forgotten() {
		s.state.inv.s.states.Forget(s.unit.config, s.unit.key())
	}
}
