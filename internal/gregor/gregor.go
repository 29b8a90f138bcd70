// Package gregor models the server-pushed key/value state channel and the
// merge of its items into the local cache.
package gregor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Categories this client understands. Anything else is ignored so newer
// servers can ship categories older clients have never heard of.
const (
	CategoryChosenChannels    = "chosenChannels"
	CategorySawChatBanner     = "sawChatBanner"
	CategorySawSubteamsBanner = "sawSubteamsBanner"
)

// Item is one opaque pushed key/value entry.
type Item struct {
	Category string `json:"category"`
	Body     []byte `json:"body"`
	MsgID    string `json:"msg_id,omitempty"`
}

// PushState is the push-state channel, consumed in both directions.
type PushState interface {
	// State returns the current ordered item list.
	State(ctx context.Context) ([]Item, error)
	// Update writes one item with a delivery time.
	Update(ctx context.Context, category string, body []byte, dtime time.Duration) error
	// Dismiss removes a delivered item by its message ID.
	Dismiss(ctx context.Context, msgID string) error
}

// DecodeChosenChannels parses the chosen-channels body, a JSON-encoded list
// of team names. An absent or empty body is an empty list.
func DecodeChosenChannels(body []byte) ([]string, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var teams []string
	if err := json.Unmarshal(body, &teams); err != nil {
		return nil, fmt.Errorf("parsing chosen channels body: %w", err)
	}
	return teams, nil
}

// EncodeChosenChannels renders the team list back to the wire form.
func EncodeChosenChannels(teams []string) ([]byte, error) {
	return json.Marshal(teams)
}

// decodeSeenFlag parses a banner-seen body. An absent body means the banner
// item exists, which is itself the signal.
func decodeSeenFlag(body []byte) (bool, error) {
	if len(body) == 0 {
		return true, nil
	}
	var seen bool
	if err := json.Unmarshal(body, &seen); err != nil {
		return false, fmt.Errorf("parsing seen flag body: %w", err)
	}
	return seen, nil
}
