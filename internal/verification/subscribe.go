package verification

import (
	"context"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// subscriberBuffer is how many snapshots a slow subscriber may lag behind
// before older ones are dropped.
const subscriberBuffer = 16

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		ResumeID:  o.id,
		AttemptID: o.attemptID,
		Phase:     PhaseLoading,
		Step:      o.step,
		Verifying: o.verifying,
		Job:       o.job,
		Budget:    o.budget,
		Polls:     o.polls,
		Handles:   o.handles,
		Closed:    o.closed,
		Version:   o.version,
	}
	switch {
	case o.failure != nil:
		f := *o.failure
		s.Phase = PhaseError
		s.Error = &f
	case o.step == StepDone && o.score != nil:
		s.Phase = PhaseResult
		score := *o.score
		s.Result = &types.VerificationResult{Score: &score, Resume: o.resume}
	}
	return s
}

// publish hands the new state to every subscriber. A full subscriber loses
// its oldest pending snapshot rather than blocking the state machine.
func (o *Orchestrator) publish() {
	o.version++
	snap := o.snapshotLocked()
	for _, ch := range o.subs {
		offer(ch, snap)
	}
}

func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Subscribe returns a channel that receives the current snapshot followed by
// every change. The channel is closed after teardown or when cancel is called.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- o.snapshotLocked()
	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if c, ok := o.subs[id]; ok {
			close(c)
			delete(o.subs, id)
		}
	}
}

// Wait blocks until the attempt reaches result or error, the orchestrator is
// torn down, or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) (Snapshot, error) {
	ch, cancel := o.Subscribe()
	defer cancel()
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return o.Snapshot(), ErrClosed
			}
			if snap.Closed {
				return snap, ErrClosed
			}
			if snap.Terminal() {
				return snap, nil
			}
		case <-ctx.Done():
			return o.Snapshot(), ctx.Err()
		}
	}
}
