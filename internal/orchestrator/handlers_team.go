package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/BergQuester/client/internal/domain"
	"github.com/BergQuester/client/internal/remote"
	"github.com/BergQuester/client/internal/store"
)

// Operation names used to key stored failures and waiting tokens.
const (
	opCreateTeam     = "createTeam"
	opJoinTeam       = "joinTeam"
	opLeaveTeam      = "leaveTeam"
	opGetTeams       = "getTeams"
	opGetDetails     = "getDetails"
	opAddPeople      = "addPeopleToTeam"
	opAddUserToTeams = "addUserToTeams"
	opInviteByEmail  = "inviteByEmail"
	opRemoveMember   = "removeMember"
	opEditMember     = "editMemberRole"
	opIgnoreRequest  = "ignoreRequest"
	opAcceptRequest  = "acceptRequest"
	opGetChannels    = "getChannels"
	opCreateChannel  = "createChannel"
	opDeleteChannel  = "deleteChannel"
	opSaveChannels   = "saveChannelMembership"
	opSetPublicity   = "setPublicity"
	opSetRetention   = "setRetention"
	opChosenChannels = "addTeamWithChosenChannels"
)

func waitingKey(op, target string) domain.WaitingKey {
	if target == "" {
		return domain.WaitingKey("teams:" + op)
	}
	return domain.WaitingKey("teams:" + op + ":" + target)
}

func (o *Orchestrator) handleCreateTeam(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(CreateTeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opCreateTeam, p.Name)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	res, err := o.remote.TeamCreate(ctx, remote.TeamCreateArg{
		Name:        p.Name,
		JoinSubteam: p.JoinSubteam,
		WaitingKey:  key,
	})
	if err != nil {
		o.store.SetOpError(opCreateTeam, p.Name, remote.ErrorDesc(err))
		return nil
	}
	o.log.Info("created team", "team", p.Name, "id", res.TeamID)
	o.store.ClearOpError(opCreateTeam, p.Name)
	o.store.Notifier().Publish(store.Event{Type: store.EventNavigateUp, TeamName: p.Name})
	return o.refreshTeams(ctx)
}

func (o *Orchestrator) handleCreateTeamFromConversation(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(CreateTeamFromConversationPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opCreateTeam, p.Name)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	res, err := o.remote.TeamCreate(ctx, remote.TeamCreateArg{Name: p.Name, WaitingKey: key})
	if err != nil {
		o.store.SetOpError(opCreateTeam, p.Name, remote.ErrorDesc(err))
		return nil
	}

	// Phase two: add the conversation's participants. The creator becomes
	// admin unless the create call already added them; everyone else joins
	// as writer. A failed add aborts the remaining adds without rolling
	// back the created team.
	for _, username := range p.Participants {
		if username == o.me && res.CreatorAdded {
			continue
		}
		role := domain.RoleWriter
		if username == o.me {
			role = domain.RoleAdmin
		}
		err := o.remote.TeamAddMember(ctx, remote.TeamAddMemberArg{
			Team:       p.Name,
			Username:   username,
			Role:       role,
			WaitingKey: key,
		})
		if err != nil {
			o.log.Warn("aborting participant adds", "team", p.Name, "username", username, "err", err)
			o.store.SetOpError(opCreateTeam, p.Name, remote.ErrorDesc(err))
			return o.refreshTeams(ctx)
		}
	}
	o.store.ClearOpError(opCreateTeam, p.Name)
	return o.refreshTeams(ctx)
}

func (o *Orchestrator) handleJoinTeam(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(JoinTeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opJoinTeam, "")
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	res, err := o.remote.TeamJoin(ctx, remote.TeamJoinArg{NameOrToken: p.NameOrToken, WaitingKey: key})
	if err != nil {
		o.store.SetOpError(opJoinTeam, p.NameOrToken, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opJoinTeam, p.NameOrToken)
	// Joined-by-name and joined-by-token are reported distinctly so the
	// consumer can decide whether the resolved name is displayable.
	o.store.Notifier().Publish(store.Event{
		Type:     store.EventTeamJoined,
		TeamName: res.TeamName,
		Payload:  map[string]any{"wasTeamName": res.WasTeamName},
	})
	return o.refreshTeams(ctx)
}

func (o *Orchestrator) handleLeaveTeam(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(LeaveTeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	key := waitingKey(opLeaveTeam, p.Name)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	err := o.remote.TeamLeave(ctx, remote.TeamLeaveArg{Name: p.Name, Permanent: p.Permanent, WaitingKey: key})
	if err != nil {
		o.store.SetOpError(opLeaveTeam, p.Name, remote.ErrorDesc(err))
		return nil
	}
	o.store.ClearOpError(opLeaveTeam, p.Name)
	return o.refreshTeams(ctx)
}

func (o *Orchestrator) handleGetTeams(ctx context.Context, ev Event) error {
	return o.refreshTeams(ctx)
}

// refreshTeams reloads the full roster and dismisses reset-user badges for
// teams that disappeared from it.
func (o *Orchestrator) refreshTeams(ctx context.Context) error {
	if o.me == "" {
		o.log.Debug("skipping roster refresh, no identity established")
		return nil
	}
	key := waitingKey(opGetTeams, "")
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	teams, err := o.remote.TeamList(ctx)
	if err != nil {
		o.store.SetOpError(opGetTeams, "", remote.ErrorDesc(err))
		return nil
	}

	prevReset := o.store.ResetUsers()
	if err := o.store.SetRoster(teams); err != nil {
		return err
	}

	inRoster := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		inRoster[t.Name] = struct{}{}
	}
	for team, users := range prevReset {
		if _, ok := inRoster[team]; ok {
			continue
		}
		for _, ru := range users {
			if err := o.push.Dismiss(ctx, ru.BadgeIDKey); err != nil {
				o.log.Warn("dismissing stale reset badge", "team", team, "username", ru.Username, "err", err)
			}
		}
	}
	return nil
}

func (o *Orchestrator) handleGetDetails(ctx context.Context, ev Event) error {
	p, ok := ev.Payload.(TeamPayload)
	if !ok {
		return badPayload(ev.Kind, ev.Payload)
	}
	return o.getDetails(ctx, p.Name)
}

// getDetails fans out the detail fetches and applies one atomic merge. The
// capability check gates the pending-requests call so members without
// manage rights never issue a guaranteed-403 request.
func (o *Orchestrator) getDetails(ctx context.Context, name string) error {
	if o.store.Loading(name) {
		o.log.Debug("details refresh already in flight", "team", name)
		return nil
	}
	o.store.SetLoading(name, true)
	defer o.store.SetLoading(name, false)

	key := waitingKey(opGetDetails, name)
	o.store.StartWaiting(key)
	defer o.store.FinishWaiting(key)

	var (
		res       remote.TeamGetRes
		canManage bool
		tars      bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = o.remote.TeamGet(gctx, name)
		return err
	})
	g.Go(func() error {
		m, err := o.remote.TeamCanManageRequests(gctx, name)
		if err != nil {
			o.log.Debug("capability check failed, assuming no manage rights", "team", name, "err", err)
			m = false
		}
		canManage = m
		return nil
	})
	g.Go(func() error {
		// The caller may legitimately lack this capability; any failure
		// substitutes the default. Worth revisiting whether non-permission
		// failures should surface instead.
		d, err := o.remote.GetTarsDisabled(gctx, name)
		if err != nil {
			if remote.IsPermissionDenied(err) {
				o.log.Debug("tars lookup not permitted, substituting default", "team", name)
			} else {
				o.log.Debug("tars lookup failed, substituting default", "team", name, "err", err)
			}
			d = false
		}
		tars = d
		return nil
	})
	if err := g.Wait(); err != nil {
		o.store.SetOpError(opGetDetails, name, remote.ErrorDesc(err))
		return nil
	}

	var requests []domain.RequestInfo
	if canManage {
		var err error
		requests, err = o.remote.TeamListRequests(ctx, name)
		if err != nil {
			o.store.SetOpError(opGetDetails, name, remote.ErrorDesc(err))
			return nil
		}
	}

	det := domain.TeamDetails{
		Members:  make(map[string]domain.MemberInfo, len(res.Members)),
		Invites:  make(map[string]domain.InviteInfo, len(res.Invites)),
		Requests: requests,
		Subteams: res.Subteams,
		Settings: res.Settings,
		Showcase: res.Showcase,
	}
	det.Settings.IgnoreAccessRequests = tars
	for _, m := range res.Members {
		det.Members[m.Username] = m
	}
	for _, inv := range res.Invites {
		det.Invites[inv.ID] = inv
	}
	o.store.SetDetails(name, det)
	if res.Retention != nil {
		// Decode failure keeps the previous cached policy.
		_ = o.store.MergeRetention(name, *res.Retention, domain.RetentionScopeTeam)
	}
	o.store.ClearOpError(opGetDetails, name)
	return nil
}
