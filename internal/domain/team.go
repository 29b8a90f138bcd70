package domain

import "strings"

// TeamID is the stable, opaque identifier for a team. A team keeps its ID
// across renames; the name→ID mapping is what changes.
type TeamID string

// TeamMeta is one roster entry for the current identity.
type TeamMeta struct {
	Name         string   `json:"name"`
	ID           TeamID   `json:"id"`
	Role         TeamRole `json:"role"`
	MemberCount  int      `json:"member_count"`
	IsOpen       bool     `json:"is_open"`
	AllowPromote bool     `json:"allow_promote"`
	Showcasing   bool     `json:"showcasing"`
}

// MemberInfo is one materialized team member.
type MemberInfo struct {
	Username string   `json:"username"`
	Role     TeamRole `json:"role"`
}

// RequestInfo is a pending join request, deduplicated as a set keyed by
// (team, username).
type RequestInfo struct {
	TeamName string `json:"team_name"`
	Username string `json:"username"`
}

// ResetUser is a member whose account was reset, tracked per team until the
// corresponding badge is dismissed.
type ResetUser struct {
	Username   string `json:"username"`
	BadgeIDKey string `json:"badge_id_key"`
}

// TeamSettings are the per-team join settings carried in team details.
type TeamSettings struct {
	Open bool `json:"open"`
	// JoinAs is the role granted on open join. The server is not permitted
	// to persist "none" here; reconciliation normalizes it to reader.
	JoinAs TeamRole `json:"join_as"`
	// IgnoreAccessRequests mirrors the server's tars-disabled flag.
	IgnoreAccessRequests bool `json:"ignore_access_requests"`
}

// TeamShowcase are the showcase dimensions of a team's publicity settings.
type TeamShowcase struct {
	AnyMemberShowcase bool `json:"any_member_showcase"`
	MemberShowcase    bool `json:"member_showcase"`
	TeamShowcase      bool `json:"team_showcase"`
}

// TeamDetails is the full per-team detail slice, replaced atomically on each
// details merge.
type TeamDetails struct {
	Members  map[string]MemberInfo `json:"members"`
	Invites  map[string]InviteInfo `json:"invites"`
	Requests []RequestInfo         `json:"requests"`
	Subteams []string              `json:"subteams"`
	Settings TeamSettings          `json:"settings"`
	Showcase TeamShowcase          `json:"showcase"`
}

// Publicity flattens details into the five-dimension publicity view used
// for minimal-diff settings updates.
func (d TeamDetails) Publicity() PublicitySettings {
	return PublicitySettings{
		Open:                 d.Settings.Open,
		OpenRole:             d.Settings.JoinAs,
		IgnoreAccessRequests: d.Settings.IgnoreAccessRequests,
		AnyMemberShowcase:    d.Showcase.AnyMemberShowcase,
		MemberShowcase:       d.Showcase.MemberShowcase,
		TeamShowcase:         d.Showcase.TeamShowcase,
	}
}

// IsSubteamOf reports whether team is a subteam of parent. Subteam names are
// always the parent name plus a dot-separated suffix.
func IsSubteamOf(team, parent string) bool {
	return strings.HasPrefix(team, parent+".")
}

// RootTeamName returns the top-level ancestor of a team name.
func RootTeamName(team string) string {
	if i := strings.IndexByte(team, '.'); i >= 0 {
		return team[:i]
	}
	return team
}
