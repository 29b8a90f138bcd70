package orchestrator

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/BergQuester/client/internal/remote"
)

func (o *Orchestrator) handleGetChannels(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(TeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	return o.getChannels(ctx, p.Name)
}

func (o *Orchestrator) getChannels(ctx context.Context, team string) error {
	key := waitingKey(opGetChannels, team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	channels, err := o.remote.ChannelList(ctx, team)
	if err != nil {
		o.store.SetOpError(opGetChannels, team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opGetChannels, team)
	return o.store.SetChannels(team, channels)
}

func (o *Orchestrator) handleCreateChannel(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(CreateChannelPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opCreateChannel, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := o.remote.ChannelCreate(ctx, remote.ChannelCreateArg{
		Team:        p.Team,
		ChannelName: p.ChannelName,
		Description: p.Description,
		WaitingKey:  key,
	})
	if err != nil {
		o.store.SetOpError(opCreateChannel, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opCreateChannel, p.Team)
	return o.getChannels(ctx, p.Team)
}

func (o *Orchestrator) handleDeleteChannel(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(DeleteChannelPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opDeleteChannel, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	if err := o.remote.ChannelDelete(ctx, p.Team, p.ConversationID); err != nil {
		o.store.SetOpError(opDeleteChannel, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opDeleteChannel, p.Team)
	return o.getChannels(ctx, p.Team)
}

func (o *Orchestrator) handleSaveChannelMembership(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(SaveChannelMembershipPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opSaveChannels, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	var (
		mu      sync.Mutex
		merr    *multierror.Error
		changed int
	)
	g, gctx := errgroup.WithContext(ctx)
	for conv, member := range p.New {
		if p.Old[conv] == member {
			continue
		}
		changed++
		conv, member := conv, member
		g.Go(func() error {
			var err error
			if member {
				err = o.remote.ChannelJoin(gctx, p.Team, conv)
			} else {
				err = o.remote.ChannelLeave(gctx, p.Team, conv)
			}
			if err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if merr != nil {
		for _, err := range merr.Errors {
			o.store.PublishGlobalError(remote.ErrorDesc(err))
		}
	}
	if changed == 0 {
		return nil
	}
	return o.getChannels(ctx, p.Team)
}
