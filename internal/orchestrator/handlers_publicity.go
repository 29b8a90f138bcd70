package orchestrator

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/BergQuester/client/internal/remote"
)

func (o *Orchestrator) handleSetPublicity(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(SetPublicityPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opSetPublicity, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	var current = p.Settings
	if det, ok := o.store.Details(p.Team); ok {
		current = det.Publicity()
	}
	want := p.Settings

	// One remote call per changed dimension, run concurrently. Every call
	// is wrapped so a failure is collected instead of aborting siblings.
	var (
		mu   sync.Mutex
		merr *multierror.Error
	)
	collect := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		merr = multierror.Append(merr, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	if want.Open != current.Open || want.OpenRole != current.OpenRole {
		g.Go(func() error {
			collect(o.remote.TeamSetSettings(gctx, p.Team, want.Open, want.OpenRole))
			return nil
		})
	}
	if want.IgnoreAccessRequests != current.IgnoreAccessRequests {
		g.Go(func() error {
			collect(o.remote.SetTarsDisabled(gctx, p.Team, want.IgnoreAccessRequests))
			return nil
		})
	}
	if want.AnyMemberShowcase != current.AnyMemberShowcase {
		g.Go(func() error {
			collect(o.remote.TeamSetAnyMemberShowcase(gctx, p.Team, want.AnyMemberShowcase))
			return nil
		})
	}
	if want.MemberShowcase != current.MemberShowcase {
		g.Go(func() error {
			collect(o.remote.TeamSetMemberShowcase(gctx, p.Team, want.MemberShowcase))
			return nil
		})
	}
	if want.TeamShowcase != current.TeamShowcase {
		g.Go(func() error {
			collect(o.remote.TeamSetShowcase(gctx, p.Team, want.TeamShowcase))
			return nil
		})
	}
	_ = g.Wait()

	// Refresh regardless of per-dimension outcome so the cache reflects
	// whatever subset the server accepted.
	if err := o.getDetails(ctx, p.Team); err != nil {
		return err
	}
	if merr != nil {
		for _, err := range merr.Errors {
			o.store.PublishGlobalError(remote.ErrorDesc(err))
		}
	}
	return nil
}

func (o *Orchestrator) handleSetRetention(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(SetRetentionPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opSetRetention, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := o.remote.TeamSetRetention(ctx, remote.SetRetentionArg{Team: p.Team, Policy: p.Policy, WaitingKey: key})
	if err != nil {
		o.store.SetOpError(opSetRetention, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opSetRetention, p.Team)
	o.store.SetRetention(p.Team, p.Policy)
	return nil
}
