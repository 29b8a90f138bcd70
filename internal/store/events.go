package store

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Event types published to state-update subscribers. Each event carries the
// full replacement value for its slice; consumers treat payloads as
// authoritative snapshots, not deltas.
const (
	EventTeamsSet          = "teams.set"
	EventDetailsSet        = "team.details.set"
	EventChannelsSet       = "team.channels.set"
	EventRetentionSet      = "team.retention.set"
	EventChosenChannelsSet = "team.chosenChannels.set"
	EventBannersSet        = "team.banners.set"
	EventBadgeStateSet     = "badge.state.set"
	EventOpErrorSet        = "op.error.set"
	EventOpResult          = "op.result"
	EventGlobalError       = "error.global"
	EventWaitingChanged    = "waiting.changed"
	EventTeamJoined        = "team.joined"
	EventNavigateUp        = "nav.up"
	EventClearNavBadges    = "nav.clearBadges"
)

// Event is the envelope for one state-update notification.
type Event struct {
	Type     string `json:"type"`
	TeamName string `json:"team_name,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

const subscriberBufSize = 256

// Notifier fans out state-update events to subscribers. Delivery is
// best-effort: a subscriber that stops draining loses events rather than
// blocking mutations.
type Notifier struct {
	log hclog.Logger

	mu   sync.Mutex
	subs []chan Event
}

func NewNotifier(log hclog.Logger) *Notifier {
	return &Notifier{log: log}
}

// Subscribe registers a new subscriber channel.
func (n *Notifier) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBufSize)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, ch)
	return ch
}

// Publish delivers ev to every subscriber without blocking.
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			n.log.Warn("dropping state event for slow subscriber", "type", ev.Type)
		}
	}
}
