package orchestrator

import (
	"github.com/BergQuester/client/internal/domain"
	"github.com/BergQuester/client/internal/gregor"
)

// EventKind is the closed enumeration of inbound events. Every kind has at
// least one handler in the dispatch table; the table constructor and a test
// both check exhaustiveness.
type EventKind int

const (
	KindCreateTeam EventKind = iota
	KindCreateTeamFromConversation
	KindJoinTeam
	KindLeaveTeam
	KindAddPeopleToTeam
	KindAddUserToTeams
	KindInviteByEmail
	KindRemoveMember
	KindEditMemberRole
	KindIgnoreRequest
	KindAcceptRequest
	KindGetDetails
	KindGetTeams
	KindGetChannels
	KindCreateChannel
	KindDeleteChannel
	KindSaveChannelMembership
	KindSetPublicity
	KindSetRetention
	KindAddTeamWithChosenChannels
	KindBadgeUpdate
	KindPushState
	KindTabVisibility

	kindCount // sentinel, keep last
)

var kindNames = map[EventKind]string{
	KindCreateTeam:                 "createTeam",
	KindCreateTeamFromConversation: "createTeamFromConversation",
	KindJoinTeam:                   "joinTeam",
	KindLeaveTeam:                  "leaveTeam",
	KindAddPeopleToTeam:            "addPeopleToTeam",
	KindAddUserToTeams:             "addUserToTeams",
	KindInviteByEmail:              "inviteByEmail",
	KindRemoveMember:               "removeMemberOrPendingInvite",
	KindEditMemberRole:             "editMemberRole",
	KindIgnoreRequest:              "ignoreRequest",
	KindAcceptRequest:              "acceptRequest",
	KindGetDetails:                 "getDetails",
	KindGetTeams:                   "getTeams",
	KindGetChannels:                "getChannels",
	KindCreateChannel:              "createChannel",
	KindDeleteChannel:              "deleteChannel",
	KindSaveChannelMembership:      "saveChannelMembership",
	KindSetPublicity:               "setPublicity",
	KindSetRetention:               "setRetention",
	KindAddTeamWithChosenChannels:  "addTeamWithChosenChannels",
	KindBadgeUpdate:                "badgeUpdate",
	KindPushState:                  "pushState",
	KindTabVisibility:              "tabVisibility",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one inbound user action or server notification.
type Event struct {
	Kind    EventKind
	Payload any
}

type CreateTeamPayload struct {
	Name        string
	JoinSubteam bool
}

type CreateTeamFromConversationPayload struct {
	Name         string
	Participants []string
}

type JoinTeamPayload struct {
	NameOrToken string
}

type LeaveTeamPayload struct {
	Name      string
	Permanent bool
}

type UserWithRole struct {
	Username string
	Role     domain.TeamRole
}

type AddPeopleToTeamPayload struct {
	Team  string
	Users []UserWithRole
}

type AddUserToTeamsPayload struct {
	Username string
	Role     domain.TeamRole
	Teams    []string
}

type InviteByEmailPayload struct {
	Team   string
	Emails []string
	Role   domain.TeamRole
}

// RemoveMemberPayload carries exactly one of Username, Email, or InviteID.
type RemoveMemberPayload struct {
	Team     string
	Username string
	Email    string
	InviteID string
}

type EditMemberRolePayload struct {
	Team     string
	Username string
	Role     domain.TeamRole
}

type RequestPayload struct {
	Team     string
	Username string
}

type TeamPayload struct {
	Name string
}

type CreateChannelPayload struct {
	Team        string
	ChannelName string
	Description string
}

type DeleteChannelPayload struct {
	Team           string
	ConversationID domain.ConversationID
}

type SaveChannelMembershipPayload struct {
	Team string
	// Old and New map conversation IDs to membership; only changed entries
	// produce join/leave calls.
	Old map[domain.ConversationID]bool
	New map[domain.ConversationID]bool
}

type SetPublicityPayload struct {
	Team     string
	Settings domain.PublicitySettings
}

type SetRetentionPayload struct {
	Team   string
	Policy domain.RetentionPolicy
}

type BadgeUpdatePayload struct {
	NewTeams   []string
	ResetUsers map[string][]domain.ResetUser
}

type PushStatePayload struct {
	Items []gregor.Item
}

type TabVisibilityPayload struct {
	OnTeamsTab bool
}
