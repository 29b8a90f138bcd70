// Package remote declares the typed client for the remote team service.
// The orchestrator only consumes this interface; the wire transport lives
// in remote/rpc.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/BergQuester/client/internal/domain"
)

// CallError is the failure shape every remote call rejects with.
type CallError struct {
	Code int
	Desc string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote call failed (code %d): %s", e.Code, e.Desc)
}

// StatusCodePermissionDenied is the code the service uses for calls the
// current identity lacks the capability for.
const StatusCodePermissionDenied = 2623

// IsPermissionDenied reports whether err is a permission-denied CallError.
func IsPermissionDenied(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Code == StatusCodePermissionDenied
}

// ErrorDesc extracts the user-facing description from a remote failure,
// falling back to the plain error string.
func ErrorDesc(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Desc
	}
	return err.Error()
}

type TeamCreateArg struct {
	Name        string            `json:"name"`
	JoinSubteam bool              `json:"join_subteam"`
	WaitingKey  domain.WaitingKey `json:"-"`
}

type TeamCreateRes struct {
	TeamID domain.TeamID `json:"team_id"`
	// CreatorAdded is set when the create call already added the creator,
	// so a redundant add-self call can be skipped.
	CreatorAdded bool `json:"creator_added"`
}

type TeamJoinArg struct {
	NameOrToken string            `json:"name_or_token"`
	WaitingKey  domain.WaitingKey `json:"-"`
}

type TeamJoinRes struct {
	// WasTeamName distinguishes "joined by name" from "joined by invite
	// token"; only the former makes the resolved name displayable as typed.
	WasTeamName bool   `json:"was_team_name"`
	TeamName    string `json:"team_name"`
}

type TeamLeaveArg struct {
	Name       string            `json:"name"`
	Permanent  bool              `json:"permanent"`
	WaitingKey domain.WaitingKey `json:"-"`
}

type TeamAddMemberArg struct {
	Team       string            `json:"team"`
	Username   string            `json:"username"`
	Role       domain.TeamRole   `json:"role"`
	WaitingKey domain.WaitingKey `json:"-"`
}

// TeamRemoveMemberArg carries exactly one of Username, Email, or InviteID.
// Enforcing that is the caller's contract, not the server's.
type TeamRemoveMemberArg struct {
	Team       string            `json:"team"`
	Username   string            `json:"username,omitempty"`
	Email      string            `json:"email,omitempty"`
	InviteID   string            `json:"invite_id,omitempty"`
	WaitingKey domain.WaitingKey `json:"-"`
}

type TeamEditMemberArg struct {
	Team       string            `json:"team"`
	Username   string            `json:"username"`
	Role       domain.TeamRole   `json:"role"`
	WaitingKey domain.WaitingKey `json:"-"`
}

type TeamInviteByEmailArg struct {
	Team       string            `json:"team"`
	Emails     []string          `json:"emails"`
	Role       domain.TeamRole   `json:"role"`
	WaitingKey domain.WaitingKey `json:"-"`
}

type TeamInviteByEmailRes struct {
	// Malformed lists the addresses the server could not parse.
	Malformed []string `json:"malformed"`
}

type TeamGetRes struct {
	Members   []domain.MemberInfo        `json:"members"`
	Invites   []domain.InviteInfo        `json:"invites"`
	Subteams  []string                   `json:"subteams"`
	Settings  domain.TeamSettings        `json:"settings"`
	Showcase  domain.TeamShowcase        `json:"showcase"`
	Retention *domain.RawRetentionPolicy `json:"retention,omitempty"`
}

type TeamRequestArg struct {
	Team       string            `json:"team"`
	Username   string            `json:"username"`
	WaitingKey domain.WaitingKey `json:"-"`
}

type ChannelCreateArg struct {
	Team        string            `json:"team"`
	ChannelName string            `json:"channel_name"`
	Description string            `json:"description,omitempty"`
	WaitingKey  domain.WaitingKey `json:"-"`
}

type SetRetentionArg struct {
	Team       string                 `json:"team"`
	Policy     domain.RetentionPolicy `json:"policy"`
	WaitingKey domain.WaitingKey      `json:"-"`
}

// Client is the remote team service. Every method is a single
// request/response call; failures carry a *CallError when the service
// rejected the call.
type Client interface {
	TeamCreate(ctx context.Context, arg TeamCreateArg) (TeamCreateRes, error)
	TeamJoin(ctx context.Context, arg TeamJoinArg) (TeamJoinRes, error)
	TeamLeave(ctx context.Context, arg TeamLeaveArg) error

	TeamAddMember(ctx context.Context, arg TeamAddMemberArg) error
	TeamRemoveMember(ctx context.Context, arg TeamRemoveMemberArg) error
	TeamEditMember(ctx context.Context, arg TeamEditMemberArg) error
	TeamInviteByEmail(ctx context.Context, arg TeamInviteByEmailArg) (TeamInviteByEmailRes, error)

	TeamList(ctx context.Context) ([]domain.TeamMeta, error)
	TeamGet(ctx context.Context, name string) (TeamGetRes, error)
	TeamListRequests(ctx context.Context, name string) ([]domain.RequestInfo, error)
	TeamCanManageRequests(ctx context.Context, name string) (bool, error)
	TeamIgnoreRequest(ctx context.Context, arg TeamRequestArg) error
	TeamAcceptRequest(ctx context.Context, arg TeamRequestArg) error

	ChannelList(ctx context.Context, team string) ([]domain.ChannelInfo, error)
	ChannelCreate(ctx context.Context, arg ChannelCreateArg) error
	ChannelDelete(ctx context.Context, team string, conv domain.ConversationID) error
	ChannelJoin(ctx context.Context, team string, conv domain.ConversationID) error
	ChannelLeave(ctx context.Context, team string, conv domain.ConversationID) error

	TeamSetSettings(ctx context.Context, team string, open bool, joinAs domain.TeamRole) error
	SetTarsDisabled(ctx context.Context, team string, disabled bool) error
	GetTarsDisabled(ctx context.Context, team string) (bool, error)
	TeamSetShowcase(ctx context.Context, team string, showcased bool) error
	TeamSetAnyMemberShowcase(ctx context.Context, team string, anyMember bool) error
	TeamSetMemberShowcase(ctx context.Context, team string, showcased bool) error

	TeamSetRetention(ctx context.Context, arg SetRetentionArg) error
}
