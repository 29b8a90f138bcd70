package domain

// PublicitySettings are the five independently-settable publicity
// dimensions of a team. Open and OpenRole change together and count as one
// dimension.
type PublicitySettings struct {
	Open                 bool     `json:"open"`
	OpenRole             TeamRole `json:"open_role"`
	IgnoreAccessRequests bool     `json:"ignore_access_requests"`
	AnyMemberShowcase    bool     `json:"any_member_showcase"`
	MemberShowcase       bool     `json:"member_showcase"`
	TeamShowcase         bool     `json:"team_showcase"`
}

// WaitingKey is an opaque token correlating an in-flight remote call with a
// UI busy indicator.
type WaitingKey string
