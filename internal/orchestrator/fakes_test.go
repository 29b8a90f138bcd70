package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BergQuester/client/internal/domain"
	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/remote"
)

// fakeRemote records every call and serves canned responses. Failures are
// injected per method name through errs.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
	// addMemberErrFor injects per-target add-member failures, keyed by
	// team or username.
	addMemberErrFor map[string]error

	createRes remote.TeamCreateRes
	joinRes   remote.TeamJoinRes
	inviteRes remote.TeamInviteByEmailRes
	teams     []domain.TeamMeta
	getRes    remote.TeamGetRes
	requests  []domain.RequestInfo
	canManage bool
	tars      bool
	channels  []domain.ChannelInfo
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		errs:            make(map[string]error),
		addMemberErrFor: make(map[string]error),
	}
}

func (f *fakeRemote) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, call)
	method := call
	for i, r := range call {
		if r == '(' {
			method = call[:i]
			break
		}
	}
	return f.errs[method]
}

// callsTo returns the recorded calls for one method.
func (f *fakeRemote) callsTo(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if len(c) >= len(method) && c[:len(method)] == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRemote) TeamCreate(ctx context.Context, arg remote.TeamCreateArg) (remote.TeamCreateRes, error) {
	err := f.record("TeamCreate(%s)", arg.Name)
	return f.createRes, err
}

func (f *fakeRemote) TeamJoin(ctx context.Context, arg remote.TeamJoinArg) (remote.TeamJoinRes, error) {
	err := f.record("TeamJoin(%s)", arg.NameOrToken)
	return f.joinRes, err
}

func (f *fakeRemote) TeamLeave(ctx context.Context, arg remote.TeamLeaveArg) error {
	return f.record("TeamLeave(%s)", arg.Name)
}

func (f *fakeRemote) TeamAddMember(ctx context.Context, arg remote.TeamAddMemberArg) error {
	if err := f.record("TeamAddMember(%s,%s,%s)", arg.Team, arg.Username, arg.Role); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.addMemberErrFor[arg.Team]; ok {
		return err
	}
	if err, ok := f.addMemberErrFor[arg.Username]; ok {
		return err
	}
	return nil
}

func (f *fakeRemote) TeamRemoveMember(ctx context.Context, arg remote.TeamRemoveMemberArg) error {
	return f.record("TeamRemoveMember(%s,%s,%s,%s)", arg.Team, arg.Username, arg.Email, arg.InviteID)
}

func (f *fakeRemote) TeamEditMember(ctx context.Context, arg remote.TeamEditMemberArg) error {
	return f.record("TeamEditMember(%s,%s,%s)", arg.Team, arg.Username, arg.Role)
}

func (f *fakeRemote) TeamInviteByEmail(ctx context.Context, arg remote.TeamInviteByEmailArg) (remote.TeamInviteByEmailRes, error) {
	err := f.record("TeamInviteByEmail(%s,%d)", arg.Team, len(arg.Emails))
	return f.inviteRes, err
}

func (f *fakeRemote) TeamList(ctx context.Context) ([]domain.TeamMeta, error) {
	err := f.record("TeamList()")
	return f.teams, err
}

func (f *fakeRemote) TeamGet(ctx context.Context, name string) (remote.TeamGetRes, error) {
	err := f.record("TeamGet(%s)", name)
	return f.getRes, err
}

func (f *fakeRemote) TeamListRequests(ctx context.Context, name string) ([]domain.RequestInfo, error) {
	err := f.record("TeamListRequests(%s)", name)
	return f.requests, err
}

func (f *fakeRemote) TeamCanManageRequests(ctx context.Context, name string) (bool, error) {
	err := f.record("TeamCanManageRequests(%s)", name)
	return f.canManage, err
}

func (f *fakeRemote) TeamIgnoreRequest(ctx context.Context, arg remote.TeamRequestArg) error {
	return f.record("TeamIgnoreRequest(%s,%s)", arg.Team, arg.Username)
}

func (f *fakeRemote) TeamAcceptRequest(ctx context.Context, arg remote.TeamRequestArg) error {
	return f.record("TeamAcceptRequest(%s,%s)", arg.Team, arg.Username)
}

func (f *fakeRemote) ChannelList(ctx context.Context, team string) ([]domain.ChannelInfo, error) {
	err := f.record("ChannelList(%s)", team)
	return f.channels, err
}

func (f *fakeRemote) ChannelCreate(ctx context.Context, arg remote.ChannelCreateArg) error {
	return f.record("ChannelCreate(%s,%s)", arg.Team, arg.ChannelName)
}

func (f *fakeRemote) ChannelDelete(ctx context.Context, team string, conv domain.ConversationID) error {
	return f.record("ChannelDelete(%s,%s)", team, conv)
}

func (f *fakeRemote) ChannelJoin(ctx context.Context, team string, conv domain.ConversationID) error {
	return f.record("ChannelJoin(%s,%s)", team, conv)
}

func (f *fakeRemote) ChannelLeave(ctx context.Context, team string, conv domain.ConversationID) error {
	return f.record("ChannelLeave(%s,%s)", team, conv)
}

func (f *fakeRemote) TeamSetSettings(ctx context.Context, team string, open bool, joinAs domain.TeamRole) error {
	return f.record("TeamSetSettings(%s,%t,%s)", team, open, joinAs)
}

func (f *fakeRemote) SetTarsDisabled(ctx context.Context, team string, disabled bool) error {
	return f.record("SetTarsDisabled(%s,%t)", team, disabled)
}

func (f *fakeRemote) GetTarsDisabled(ctx context.Context, team string) (bool, error) {
	err := f.record("GetTarsDisabled(%s)", team)
	return f.tars, err
}

func (f *fakeRemote) TeamSetShowcase(ctx context.Context, team string, showcased bool) error {
	return f.record("TeamSetShowcase(%s,%t)", team, showcased)
}

func (f *fakeRemote) TeamSetAnyMemberShowcase(ctx context.Context, team string, anyMember bool) error {
	return f.record("TeamSetAnyMemberShowcase(%s,%t)", team, anyMember)
}

func (f *fakeRemote) TeamSetMemberShowcase(ctx context.Context, team string, showcased bool) error {
	return f.record("TeamSetMemberShowcase(%s,%t)", team, showcased)
}

func (f *fakeRemote) TeamSetRetention(ctx context.Context, arg remote.SetRetentionArg) error {
	return f.record("TeamSetRetention(%s,%s)", arg.Team, arg.Policy.Type)
}

var _ remote.Client = (*fakeRemote)(nil)

// fakePush is an in-memory push-state channel that applies writes to its
// own item list, like the real channel does across clients.
type fakePush struct {
	mu        sync.Mutex
	items     []gregor.Item
	stateErr  error
	updateErr error
	updates   []gregor.Item
	dismissed []string
}

func (f *fakePush) State(ctx context.Context) ([]gregor.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return append([]gregor.Item(nil), f.items...), nil
}

func (f *fakePush) Update(ctx context.Context, category string, body []byte, dtime time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	item := gregor.Item{Category: category, Body: body}
	f.updates = append(f.updates, item)
	for i := range f.items {
		if f.items[i].Category == category {
			f.items[i] = item
			return nil
		}
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakePush) Dismiss(ctx context.Context, msgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, msgID)
	return nil
}

var _ gregor.PushState = (*fakePush)(nil)
