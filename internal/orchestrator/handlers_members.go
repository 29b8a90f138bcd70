package orchestrator

import (
	"context"
	"fmt"

	"github.com/BergQuester/client/internal/remote"
	"github.com/BergQuester/client/internal/store"
)

func (o *Orchestrator) handleAddPeopleToTeam(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(AddPeopleToTeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opAddPeople, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	// Each target is attempted independently; one failure never aborts the
	// others. The result is an aggregated human-readable summary.
	var succeeded, failed []string
	for _, u := range p.Users {
		err := o.remote.TeamAddMember(ctx, remote.TeamAddMemberArg{
			Team:       p.Team,
			Username:   u.Username,
			Role:       u.Role,
			WaitingKey: key,
		})
		if err != nil {
			o.log.Warn("adding member failed", "team", p.Team, "username", u.Username, "err", err)
			failed = append(failed, u.Username)
			continue
		}
		succeeded = append(succeeded, u.Username)
	}

	var okMsg, failMsg string
	if len(succeeded) > 0 {
		okMsg = addedPeopleMessage(p.Team, succeeded)
	}
	if len(failed) > 0 {
		failMsg = failedToAddPeopleMessage(p.Team, failed)
		o.store.SetOpError(opAddPeople, p.Team, failMsg)
	} else {
		o.store.ClearOpError(opAddPeople, p.Team)
	}
	o.store.Notifier().Publish(store.Event{
		Type:     store.EventOpResult,
		TeamName: p.Team,
		Payload:  joinSentences(okMsg, failMsg),
	})
	return o.getDetails(ctx, p.Team)
}

func (o *Orchestrator) handleAddUserToTeams(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(AddUserToTeamsPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opAddUserToTeams, p.Username)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	var succeeded, failed []string
	for _, team := range p.Teams {
		err := o.remote.TeamAddMember(ctx, remote.TeamAddMemberArg{
			Team:       team,
			Username:   p.Username,
			Role:       p.Role,
			WaitingKey: key,
		})
		if err != nil {
			o.log.Warn("adding user to team failed", "team", team, "username", p.Username, "err", err)
			failed = append(failed, team)
			continue
		}
		succeeded = append(succeeded, team)
	}

	var okMsg, failMsg string
	if len(succeeded) > 0 {
		okMsg = addedToTeamsMessage(p.Username, succeeded)
	}
	if len(failed) > 0 {
		failMsg = failedToAddToTeamsMessage(p.Username, failed)
	}
	o.store.Notifier().Publish(store.Event{
		Type:    store.EventOpResult,
		Payload: joinSentences(okMsg, failMsg),
	})
	return o.refreshTeams(ctx)
}

func (o *Orchestrator) handleInviteByEmail(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(InviteByEmailPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opInviteByEmail, p.Team)
	o.store.StartWaiting(key)
	// Guaranteed terminating step: the loading indicator clears on every
	// exit path.
	defer o.store.FinishWaiting(key)

	res, err := o.remote.TeamInviteByEmail(ctx, remote.TeamInviteByEmailArg{
		Team:       p.Team,
		Emails:     p.Emails,
		Role:       p.Role,
		WaitingKey: key,
	})
	if err != nil {
		o.store.SetOpError(opInviteByEmail, p.Team, remote.ErrorDesc(err))
		return nil
	}
	if n := len(res.Malformed); n > 0 {
		// Keep the user on the invite surface so they can fix the
		// addresses; do not navigate away.
		o.store.SetOpError(opInviteByEmail, p.Team, malformedAddressesMessage(n))
		return o.getDetails(ctx, p.Team)
	}
	o.store.ClearOpError(opInviteByEmail, p.Team)
	o.store.Notifier().Publish(store.Event{Type: store.EventNavigateUp, TeamName: p.Team})
	return o.getDetails(ctx, p.Team)
}

func (o *Orchestrator) handleRemoveMember(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(RemoveMemberPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	targets := 0
	for _, t := range []string{p.Username, p.Email, p.InviteID} {
		if t != "" {
			targets++
		}
	}
	if targets != 1 {
		// Contract violation by the caller, not a remote failure.
		return fmt.Errorf("removeMemberOrPendingInvite: exactly one of username, email, or invite id required, got %d", targets)
	}
	key := waitingKey(opRemoveMember, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := o.remote.TeamRemoveMember(ctx, remote.TeamRemoveMemberArg{
		Team:       p.Team,
		Username:   p.Username,
		Email:      p.Email,
		InviteID:   p.InviteID,
		WaitingKey: key,
	})
	if err != nil {
		o.store.SetOpError(opRemoveMember, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opRemoveMember, p.Team)
	return o.getDetails(ctx, p.Team)
}

func (o *Orchestrator) handleEditMemberRole(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(EditMemberRolePayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opEditMember, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := o.remote.TeamEditMember(ctx, remote.TeamEditMemberArg{
		Team:       p.Team,
		Username:   p.Username,
		Role:       p.Role,
		WaitingKey: key,
	})
	if err != nil {
		o.store.SetOpError(opEditMember, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opEditMember, p.Team)
	return o.getDetails(ctx, p.Team)
}

func (o *Orchestrator) handleIgnoreRequest(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(RequestPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	return o.resolveRequest(ctx, opIgnoreRequest, p, o.remote.TeamIgnoreRequest)
}

func (o *Orchestrator) handleAcceptRequest(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(RequestPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	return o.resolveRequest(ctx, opAcceptRequest, p, o.remote.TeamAcceptRequest)
}

func (o *Orchestrator) resolveRequest(ctx context.Context, op string, p RequestPayload, call func(context.Context, remote.TeamRequestArg) error) error {
	key := waitingKey(op, p.Team)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := call(ctx, remote.TeamRequestArg{Team: p.Team, Username: p.Username, WaitingKey: key})
	if err != nil {
		o.store.SetOpError(op, p.Team, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(op, p.Team)
	return o.getDetails(ctx, p.Team)
}
