package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BergQuester/client/internal/domain"
	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/remote"
	"github.com/BergQuester/client/internal/store"
)

func newTestOrchestrator(t *testing.T, me string) (*Orchestrator, *fakeRemote, *fakePush, *store.Store) {
	t.Helper()
	st, err := store.New(hclog.NewNullLogger())
	require.NoError(t, err)
	f := newFakeRemote()
	push := &fakePush{}
	o := New(f, push, st, me, hclog.NewNullLogger())
	return o, f, push, st
}

// drain collects every event currently buffered on the subscription.
func drain(events <-chan store.Event) []store.Event {
	var out []store.Event
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []store.Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestCreateTeamFromConversationSkipsCreatorWhenAlreadyAdded(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")
	f.createRes = remote.TeamCreateRes{TeamID: "tid-1", CreatorAdded: true}

	err := o.handleCreateTeamFromConversation(context.Background(), Event{
		Kind:    KindCreateTeamFromConversation,
		Payload: CreateTeamFromConversationPayload{Name: "eng.x", Participants: []string{"alice", "bob"}},
	})
	require.NoError(t, err)

	adds := f.callsTo("TeamAddMember")
	require.Len(t, adds, 1, "creator must not be re-added")
	assert.Equal(t, "TeamAddMember(eng.x,bob,writer)", adds[0])
}

func TestCreateTeamFromConversationAddsCreatorAsAdmin(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")
	f.createRes = remote.TeamCreateRes{TeamID: "tid-1", CreatorAdded: false}

	err := o.handleCreateTeamFromConversation(context.Background(), Event{
		Kind:    KindCreateTeamFromConversation,
		Payload: CreateTeamFromConversationPayload{Name: "eng.x", Participants: []string{"alice", "bob"}},
	})
	require.NoError(t, err)

	adds := f.callsTo("TeamAddMember")
	require.Len(t, adds, 2)
	assert.Equal(t, "TeamAddMember(eng.x,alice,admin)", adds[0])
	assert.Equal(t, "TeamAddMember(eng.x,bob,writer)", adds[1])
}

func TestCreateTeamFromConversationAbortsAddsOnFailure(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.createRes = remote.TeamCreateRes{TeamID: "tid-1", CreatorAdded: true}
	f.addMemberErrFor["bob"] = &remote.CallError{Code: 100, Desc: "bob is not a real user"}

	err := o.handleCreateTeamFromConversation(context.Background(), Event{
		Kind:    KindCreateTeamFromConversation,
		Payload: CreateTeamFromConversationPayload{Name: "eng.x", Participants: []string{"alice", "bob", "carol"}},
	})
	require.NoError(t, err)

	adds := f.callsTo("TeamAddMember")
	require.Len(t, adds, 1, "a failed add aborts the remaining adds")
	opErr, ok := st.OpError("createTeam", "eng.x")
	require.True(t, ok)
	assert.Equal(t, "bob is not a real user", opErr.Desc)
}

func TestCreateTeamStoresFailure(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.errs["TeamCreate"] = &remote.CallError{Code: 101, Desc: "team name taken"}

	err := o.handleCreateTeam(context.Background(), Event{
		Kind:    KindCreateTeam,
		Payload: CreateTeamPayload{Name: "eng"},
	})
	require.NoError(t, err, "remote failures are stored, not propagated")

	opErr, ok := st.OpError("createTeam", "eng")
	require.True(t, ok)
	assert.Equal(t, "team name taken", opErr.Desc)
	assert.Empty(t, f.callsTo("TeamList"), "no roster refresh after a failed create")
}

func TestJoinTeamReportsTokenJoinDistinctly(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.joinRes = remote.TeamJoinRes{WasTeamName: false, TeamName: "eng"}
	events := st.Notifier().Subscribe()

	err := o.handleJoinTeam(context.Background(), Event{
		Kind:    KindJoinTeam,
		Payload: JoinTeamPayload{NameOrToken: "seitan-token"},
	})
	require.NoError(t, err)

	var joined *store.Event
	for _, ev := range drain(events) {
		if ev.Type == store.EventTeamJoined {
			ev := ev
			joined = &ev
		}
	}
	require.NotNil(t, joined)
	assert.Equal(t, "eng", joined.TeamName)
	payload, ok := joined.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, payload["wasTeamName"])
}

func TestGetTeamsNoOpWithoutIdentity(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "")
	err := o.handleGetTeams(context.Background(), Event{Kind: KindGetTeams})
	require.NoError(t, err)
	assert.Empty(t, f.calls)
}

func TestGetTeamsDismissesStaleResetBadges(t *testing.T) {
	o, f, push, st := newTestOrchestrator(t, "alice")
	st.SetBadgeState(nil, map[string][]domain.ResetUser{
		"gone": {{Username: "u", BadgeIDKey: "badge-1"}},
		"eng":  {{Username: "v", BadgeIDKey: "badge-2"}},
	})
	f.teams = []domain.TeamMeta{{Name: "eng", ID: "tid-1", Role: domain.RoleWriter}}

	err := o.handleGetTeams(context.Background(), Event{Kind: KindGetTeams})
	require.NoError(t, err)

	assert.Equal(t, []string{"badge-1"}, push.dismissed,
		"only badges for teams missing from the new roster are dismissed")
	teams := st.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "eng", teams[0].Name)
}

func TestGetDetailsGatesRequestsOnCapability(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	st.SetDetails("eng", domain.TeamDetails{
		Requests: []domain.RequestInfo{{TeamName: "eng", Username: "zed"}},
	})
	f.canManage = false
	f.requests = []domain.RequestInfo{{TeamName: "eng", Username: "zed"}}

	err := o.getDetails(context.Background(), "eng")
	require.NoError(t, err)

	assert.Empty(t, f.callsTo("TeamListRequests"),
		"members without manage rights never issue the requests call")
	det, ok := st.Details("eng")
	require.True(t, ok)
	assert.Empty(t, det.Requests, "merge replaces the request set with empty")
}

func TestGetDetailsMergesSortedRequestsAndTars(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.canManage = true
	f.tars = true
	f.requests = []domain.RequestInfo{
		{TeamName: "eng", Username: "zed"},
		{TeamName: "eng", Username: "amy"},
	}
	f.getRes = remote.TeamGetRes{
		Members:  []domain.MemberInfo{{Username: "alice", Role: domain.RoleOwner}},
		Settings: domain.TeamSettings{Open: true, JoinAs: domain.RoleWriter},
	}

	err := o.getDetails(context.Background(), "eng")
	require.NoError(t, err)

	det, ok := st.Details("eng")
	require.True(t, ok)
	require.Len(t, det.Requests, 2)
	assert.Equal(t, "amy", det.Requests[0].Username)
	assert.True(t, det.Settings.IgnoreAccessRequests)
	assert.Contains(t, det.Members, "alice")
}

func TestGetDetailsRetentionDecodeKeepsPrevious(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	st.SetRetention("eng", domain.RetentionPolicy{Type: domain.RetentionRetain})
	f.getRes = remote.TeamGetRes{
		Retention: &domain.RawRetentionPolicy{Typ: "inherit"},
	}

	err := o.getDetails(context.Background(), "eng")
	require.NoError(t, err)

	got, ok := st.Retention("eng")
	require.True(t, ok)
	assert.Equal(t, domain.RetentionRetain, got.Type,
		"inherit at team scope never mutates the cached policy")
}

func TestSetPublicityIssuesOnlyChangedDimension(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	st.SetDetails("eng", domain.TeamDetails{
		Settings: domain.TeamSettings{Open: false, JoinAs: domain.RoleReader},
	})

	want := domain.PublicitySettings{
		Open:                 false,
		OpenRole:             domain.RoleReader,
		IgnoreAccessRequests: true,
	}
	err := o.handleSetPublicity(context.Background(), Event{
		Kind:    KindSetPublicity,
		Payload: SetPublicityPayload{Team: "eng", Settings: want},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"SetTarsDisabled(eng,true)"}, f.callsTo("SetTarsDisabled"))
	assert.Empty(t, f.callsTo("TeamSetSettings"))
	assert.Empty(t, f.callsTo("TeamSetShowcase"))
	assert.Empty(t, f.callsTo("TeamSetAnyMemberShowcase"))
	assert.Empty(t, f.callsTo("TeamSetMemberShowcase"))
	assert.Len(t, f.callsTo("TeamGet"), 1, "exactly one details refresh follows")
}

func TestSetPublicitySurfacesEveryDimensionFailure(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	st.SetDetails("eng", domain.TeamDetails{
		Settings: domain.TeamSettings{Open: false, JoinAs: domain.RoleReader},
	})
	f.errs["SetTarsDisabled"] = &remote.CallError{Code: 100, Desc: "tars boom"}
	f.errs["TeamSetShowcase"] = &remote.CallError{Code: 100, Desc: "showcase boom"}
	events := st.Notifier().Subscribe()

	err := o.handleSetPublicity(context.Background(), Event{
		Kind: KindSetPublicity,
		Payload: SetPublicityPayload{Team: "eng", Settings: domain.PublicitySettings{
			OpenRole:             domain.RoleReader,
			IgnoreAccessRequests: true,
			TeamShowcase:         true,
		}},
	})
	require.NoError(t, err)

	var globals []string
	for _, ev := range drain(events) {
		if ev.Type == store.EventGlobalError {
			globals = append(globals, ev.Payload.(string))
		}
	}
	assert.ElementsMatch(t, []string{"tars boom", "showcase boom"}, globals)
	assert.Len(t, f.callsTo("TeamGet"), 1, "refresh happens despite failures")
}

func TestInviteByEmailMalformedKeepsUserOnSurface(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.inviteRes = remote.TeamInviteByEmailRes{Malformed: []string{"bad1", "bad2"}}
	events := st.Notifier().Subscribe()

	err := o.handleInviteByEmail(context.Background(), Event{
		Kind: KindInviteByEmail,
		Payload: InviteByEmailPayload{
			Team:   "eng",
			Emails: []string{"a@x.y", "b@x.y", "bad1", "bad2", "c@x.y"},
			Role:   domain.RoleReader,
		},
	})
	require.NoError(t, err)

	opErr, ok := st.OpError("inviteByEmail", "eng")
	require.True(t, ok)
	assert.Equal(t, "There was an error parsing 2 addresses.", opErr.Desc)
	assert.NotContains(t, eventTypes(drain(events)), store.EventNavigateUp,
		"must not navigate away while addresses need fixing")
}

func TestInviteByEmailSuccessNavigatesAway(t *testing.T) {
	o, _, _, st := newTestOrchestrator(t, "alice")
	events := st.Notifier().Subscribe()

	err := o.handleInviteByEmail(context.Background(), Event{
		Kind:    KindInviteByEmail,
		Payload: InviteByEmailPayload{Team: "eng", Emails: []string{"a@x.y"}, Role: domain.RoleReader},
	})
	require.NoError(t, err)

	assert.Contains(t, eventTypes(drain(events)), store.EventNavigateUp)
}

func TestInviteByEmailClearsWaitingOnEveryPath(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.errs["TeamInviteByEmail"] = &remote.CallError{Code: 100, Desc: "boom"}

	err := o.handleInviteByEmail(context.Background(), Event{
		Kind:    KindInviteByEmail,
		Payload: InviteByEmailPayload{Team: "eng", Emails: []string{"a@x.y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, st.WaitingCount(waitingKey(opInviteByEmail, "eng")))
}

func TestRemoveMemberRejectsMultipleIdentifiers(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")

	err := o.handleRemoveMember(context.Background(), Event{
		Kind:    KindRemoveMember,
		Payload: RemoveMemberPayload{Team: "eng", Username: "bob", Email: "bob@x.y"},
	})
	require.Error(t, err, "contract violation fails fast")
	assert.Empty(t, f.calls, "no remote call is attempted")
}

func TestRemoveMemberByInviteID(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")

	err := o.handleRemoveMember(context.Background(), Event{
		Kind:    KindRemoveMember,
		Payload: RemoveMemberPayload{Team: "eng", InviteID: "inv-1"},
	})
	require.NoError(t, err)
	require.Len(t, f.callsTo("TeamRemoveMember"), 1)
	assert.Len(t, f.callsTo("TeamGet"), 1, "success triggers a details refresh")
}

func TestAddUserToTeamsAggregatesPerTargetOutcomes(t *testing.T) {
	o, f, _, st := newTestOrchestrator(t, "alice")
	f.addMemberErrFor["t2"] = &remote.CallError{Code: 100, Desc: "no"}
	f.teams = []domain.TeamMeta{{Name: "t1", ID: "tid-1"}}
	events := st.Notifier().Subscribe()

	err := o.handleAddUserToTeams(context.Background(), Event{
		Kind:    KindAddUserToTeams,
		Payload: AddUserToTeamsPayload{Username: "u", Role: domain.RoleWriter, Teams: []string{"t1", "t2", "t3"}},
	})
	require.NoError(t, err)

	require.Len(t, f.callsTo("TeamAddMember"), 3, "one failure never aborts the other targets")
	var result string
	for _, ev := range drain(events) {
		if ev.Type == store.EventOpResult {
			result = ev.Payload.(string)
		}
	}
	assert.Equal(t, "u was added to t1 and t3. Failed to add u to t2.", result)
}

func TestSaveChannelMembershipOnlyChanged(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")

	err := o.handleSaveChannelMembership(context.Background(), Event{
		Kind: KindSaveChannelMembership,
		Payload: SaveChannelMembershipPayload{
			Team: "eng",
			Old:  map[domain.ConversationID]bool{"c1": true, "c2": false, "c3": true},
			New:  map[domain.ConversationID]bool{"c1": true, "c2": true, "c3": false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ChannelJoin(eng,c2)"}, f.callsTo("ChannelJoin"))
	assert.Equal(t, []string{"ChannelLeave(eng,c3)"}, f.callsTo("ChannelLeave"))
	assert.Len(t, f.callsTo("ChannelList"), 1, "refresh after applying changes")
}

func TestSaveChannelMembershipNoChangesNoRefresh(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")

	err := o.handleSaveChannelMembership(context.Background(), Event{
		Kind: KindSaveChannelMembership,
		Payload: SaveChannelMembershipPayload{
			Team: "eng",
			Old:  map[domain.ConversationID]bool{"c1": true},
			New:  map[domain.ConversationID]bool{"c1": true},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, f.calls)
}

func TestAddTeamWithChosenChannelsIsIdempotent(t *testing.T) {
	o, _, push, st := newTestOrchestrator(t, "alice")

	for i := 0; i < 2; i++ {
		err := o.handleAddTeamWithChosenChannels(context.Background(), Event{
			Kind:    KindAddTeamWithChosenChannels,
			Payload: TeamPayload{Name: "eng"},
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"eng"}, st.ChosenChannels())
	require.Len(t, push.updates, 2)
	assert.JSONEq(t, `["eng"]`, string(push.updates[1].Body), "write-back stays deduplicated")
}

func TestAddTeamWithChosenChannelsMergesServerList(t *testing.T) {
	o, _, push, st := newTestOrchestrator(t, "alice")
	push.items = []gregor.Item{{Category: gregor.CategoryChosenChannels, Body: []byte(`["sales"]`)}}

	err := o.handleAddTeamWithChosenChannels(context.Background(), Event{
		Kind:    KindAddTeamWithChosenChannels,
		Payload: TeamPayload{Name: "eng"},
	})
	require.NoError(t, err)

	require.Len(t, push.updates, 1)
	assert.JSONEq(t, `["eng","sales"]`, string(push.updates[0].Body))
	assert.Equal(t, []string{"eng", "sales"}, st.ChosenChannels())
}

func TestAddTeamWithChosenChannelsAbortsOnDesync(t *testing.T) {
	o, _, push, st := newTestOrchestrator(t, "alice")
	st.MergeChosenChannels([]string{"a", "b"})
	push.items = []gregor.Item{{Category: gregor.CategoryChosenChannels, Body: []byte(`["a"]`)}}

	err := o.handleAddTeamWithChosenChannels(context.Background(), Event{
		Kind:    KindAddTeamWithChosenChannels,
		Payload: TeamPayload{Name: "eng"},
	})
	require.NoError(t, err)

	assert.Empty(t, push.updates, "local ahead of server aborts the write")
	assert.Equal(t, []string{"a", "b"}, st.ChosenChannels())
}

func TestDispatcherRunsBothBadgeHandlers(t *testing.T) {
	o, _, _, st := newTestOrchestrator(t, "alice")
	d, err := NewDispatcher(o, hclog.NewNullLogger())
	require.NoError(t, err)
	events := st.Notifier().Subscribe()

	require.NoError(t, d.RunSync(context.Background(), Event{
		Kind:    KindTabVisibility,
		Payload: TabVisibilityPayload{OnTeamsTab: true},
	}))
	require.NoError(t, d.RunSync(context.Background(), Event{
		Kind:    KindBadgeUpdate,
		Payload: BadgeUpdatePayload{},
	}))

	types := eventTypes(drain(events))
	assert.Contains(t, types, store.EventBadgeStateSet)
	assert.Contains(t, types, store.EventClearNavBadges)
}

func TestDispatcherRunDispatchesAsync(t *testing.T) {
	o, f, _, _ := newTestOrchestrator(t, "alice")
	d, err := NewDispatcher(o, hclog.NewNullLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Dispatch(Event{Kind: KindGetTeams})
	require.Eventually(t, func() bool {
		return len(f.callsTo("TeamList")) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
