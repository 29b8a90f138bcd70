package orchestrator

import (
	"context"
	"sort"

	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/store"
)

func (o *Orchestrator) handlePushState(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(PushStatePayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	gregor.Merge(o.log, o.store, p.Items)
	return nil
}

// handleAddTeamWithChosenChannels is a read-modify-write against the push
// channel: re-fetch the stored chosen-channels item, union in the new team,
// and write the deduplicated list back.
func (o *Orchestrator) handleAddTeamWithChosenChannels(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(TeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opChosenChannels, p.Name)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	items, err := o.push.State(ctx)
	if err != nil {
		o.store.SetOpError(opChosenChannels, p.Name, err.Error())
		return nil
	}
	var existing []string
	for _, item := range items {
		if item.Category != gregor.CategoryChosenChannels {
			continue
		}
		existing, err = gregor.DecodeChosenChannels(item.Body)
		if err != nil {
			o.log.Warn("unreadable chosen channels item, not writing back", "err", err)
			return nil
		}
		break
	}

	// A locally tracked set larger than the freshly fetched server list
	// means this client is ahead of the server's view; writing now would
	// clobber entries another client persisted. Abort instead.
	if o.store.ChosenChannelsCount() > len(existing) {
		o.log.Warn("chosen channels desync, aborting write",
			"local", o.store.ChosenChannelsCount(), "server", len(existing))
		return nil
	}

	merged := make(map[string]struct{}, len(existing)+1)
	for _, name := range existing {
		merged[name] = struct{}{}
	}
	merged[p.Name] = struct{}{}
	teams := make([]string, 0, len(merged))
	for name := range merged {
		teams = append(teams, name)
	}
	sort.Strings(teams)

	body, err := gregor.EncodeChosenChannels(teams)
	if err != nil {
		return err
	}
	if err := o.push.Update(ctx, gregor.CategoryChosenChannels, body, 0); err != nil {
		o.store.SetOpError(opChosenChannels, p.Name, err.Error())
		return nil
	}
	o.store.ClearOpError(opChosenChannels, p.Name)
	o.store.MergeChosenChannels(teams)
	return nil
}

// handleBadgeReconcile folds a badge-state change into the cache. It runs
// independently of handleBadgeNavClear on the same event kind.
func (o *Orchestrator) handleBadgeReconcile(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(BadgeUpdatePayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	o.store.SetBadgeState(p.NewTeams, p.ResetUsers)
	return nil
}

// handleBadgeNavClear clears the teams-tab badge hint once no badge state
// remains and the tab is visible.
func (o *Orchestrator) handleBadgeNavClear(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(BadgeUpdatePayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	if len(p.NewTeams) == 0 && len(p.ResetUsers) == 0 && o.onTeamsTab.Load() {
		o.store.Notifier().Publish(store.Event{Type: store.EventClearNavBadges})
	}
	return nil
}

func (o *Orchestrator) handleTabVisibility(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(TabVisibilityPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	o.onTeamsTab.Store(p.OnTeamsTab)
	return nil
}
