package domain

// ConversationID identifies one channel conversation.
type ConversationID string

// ChannelInfo is one channel owned by a team. Channels are created and
// destroyed only through explicit create/delete operations.
type ChannelInfo struct {
	ConversationID ConversationID `json:"conversation_id"`
	TeamName       string         `json:"team_name"`
	ChannelName    string         `json:"channel_name"`
	Description    string         `json:"description,omitempty"`
	Participants   []string       `json:"participants,omitempty"`
}
