// Package orchestrator coordinates multi-step team lifecycle operations
// against the remote team service while keeping the local cache consistent
// under partial failure, out-of-order notifications, and concurrent user
// actions.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/remote"
	"github.com/BergQuester/client/internal/store"
)

// Orchestrator owns the workflow handlers. Handlers read the cache, call
// the remote service, and hand results to the store's merge methods; they
// never write entity state directly.
type Orchestrator struct {
	remote remote.Client
	push   gregor.PushState
	store  *store.Store
	log    hclog.Logger

	// me is the current identity's username; empty means none established.
	me string

	// onTeamsTab is UI visibility threaded through the dispatcher rather
	// than an ambient global.
	onTeamsTab atomic.Bool
}

func New(rc remote.Client, push gregor.PushState, st *store.Store, me string, log hclog.Logger) *Orchestrator {
	return &Orchestrator{
		remote: rc,
		push:   push,
		store:  st,
		log:    log.Named("orchestrator"),
		me:     me,
	}
}

// HandlerFunc is one workflow handler bound to an event kind.
type HandlerFunc func(ctx context.Context, ev Event) error

// handlerTable is the authoritative event-kind → handler binding. Most
// kinds have a single handler; badge updates run both a reconciliation and
// a navigation-clear check, independently and in no guaranteed order.
// Adding an event kind means adding exactly one entry here.
func (o *Orchestrator) handlerTable() map[EventKind][]HandlerFunc {
	return map[EventKind][]HandlerFunc{
		KindCreateTeam:                 {o.handleCreateTeam},
		KindCreateTeamFromConversation: {o.handleCreateTeamFromConversation},
		KindJoinTeam:                   {o.handleJoinTeam},
		KindLeaveTeam:                  {o.handleLeaveTeam},
		KindAddPeopleToTeam:            {o.handleAddPeopleToTeam},
		KindAddUserToTeams:             {o.handleAddUserToTeams},
		KindInviteByEmail:              {o.handleInviteByEmail},
		KindRemoveMember:               {o.handleRemoveMember},
		KindEditMemberRole:             {o.handleEditMemberRole},
		KindIgnoreRequest:              {o.handleIgnoreRequest},
		KindAcceptRequest:              {o.handleAcceptRequest},
		KindGetDetails:                 {o.handleGetDetails},
		KindGetTeams:                   {o.handleGetTeams},
		KindGetChannels:                {o.handleGetChannels},
		KindCreateChannel:              {o.handleCreateChannel},
		KindDeleteChannel:              {o.handleDeleteChannel},
		KindSaveChannelMembership:      {o.handleSaveChannelMembership},
		KindSetPublicity:               {o.handleSetPublicity},
		KindSetRetention:               {o.handleSetRetention},
		KindAddTeamWithChosenChannels:  {o.handleAddTeamWithChosenChannels},
		KindBadgeUpdate:                {o.handleBadgeReconcile, o.handleBadgeNavClear},
		KindPushState:                  {o.handlePushState},
		KindTabVisibility:              {o.handleTabVisibility},
	}
}

// Dispatcher routes inbound events to their handlers. One goroutine drains
// the queue; each handler runs in its own goroutine, so ordering is
// guaranteed within a handler's sequential calls but not across handlers.
type Dispatcher struct {
	o     *Orchestrator
	table map[EventKind][]HandlerFunc
	log   hclog.Logger

	events chan Event
	wg     sync.WaitGroup
}

const dispatchBufSize = 128

// NewDispatcher builds the dispatcher, verifying the handler table covers
// every event kind.
func NewDispatcher(o *Orchestrator, log hclog.Logger) (*Dispatcher, error) {
	table := o.handlerTable()
	for k := EventKind(0); k < kindCount; k++ {
		if len(table[k]) == 0 {
			return nil, fmt.Errorf("no handler bound for event kind %s", k)
		}
	}
	return &Dispatcher{
		o:      o,
		table:  table,
		log:    log.Named("dispatch"),
		events: make(chan Event, dispatchBufSize),
	}, nil
}

// Dispatch enqueues one event. It never blocks the caller on handler work.
func (d *Dispatcher) Dispatch(ev Event) {
	d.events <- ev
}

// Run drains the queue until ctx is done, then waits for in-flight
// handlers.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return
		case ev := <-d.events:
			d.run(ctx, ev)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, ev Event) {
	handlers := d.table[ev.Kind]
	if len(handlers) == 0 {
		d.log.Error("dropping event with no handler", "kind", ev.Kind)
		return
	}
	for _, h := range handlers {
		h := h
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := h(ctx, ev); err != nil {
				// Handlers return errors only for programmer/contract
				// violations; remote failures are stored as op errors
				// inside the handler.
				d.log.Error("handler failed", "kind", ev.Kind, "err", err)
			}
		}()
	}
}

// RunSync executes all handlers for one event on the calling goroutine.
// Tests and follow-up refreshes use it for deterministic ordering.
func (d *Dispatcher) RunSync(ctx context.Context, ev Event) error {
	handlers := d.table[ev.Kind]
	if len(handlers) == 0 {
		return fmt.Errorf("no handler bound for event kind %s", ev.Kind)
	}
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func badPayload(k EventKind, got any) error {
	return fmt.Errorf("event %s: unexpected payload type %T", k, got)
}
