package domain

import "errors"

// InviteCategory tags which kind of pending invite an InviteInfo is.
type InviteCategory string

const (
	InviteCategoryEmail  InviteCategory = "email"
	InviteCategorySocial InviteCategory = "social"
	InviteCategorySeitan InviteCategory = "seitan"
)

var (
	ErrInviteNoTarget        = errors.New("invite has no target")
	ErrInviteMultipleTargets = errors.New("invite has more than one target")
)

// InviteInfo is one pending invite. Exactly one of Email,
// Username+SocialNetwork, or SeitanName identifies the invitee.
type InviteInfo struct {
	ID   string   `json:"id"`
	Role TeamRole `json:"role"`

	Email         string `json:"email,omitempty"`
	Username      string `json:"username,omitempty"`
	SocialNetwork string `json:"social_network,omitempty"`
	SeitanName    string `json:"seitan_name,omitempty"`
}

// Category resolves the invite's tag, failing closed when the wire data does
// not identify exactly one target.
func (i InviteInfo) Category() (InviteCategory, error) {
	var cats []InviteCategory
	if i.Email != "" {
		cats = append(cats, InviteCategoryEmail)
	}
	if i.Username != "" || i.SocialNetwork != "" {
		cats = append(cats, InviteCategorySocial)
	}
	if i.SeitanName != "" {
		cats = append(cats, InviteCategorySeitan)
	}
	switch len(cats) {
	case 0:
		return "", ErrInviteNoTarget
	case 1:
		return cats[0], nil
	default:
		return "", ErrInviteMultipleTargets
	}
}
