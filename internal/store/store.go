// Package store holds the process-wide normalized team-state cache. It is
// mutated exclusively through the reconciliation and push-state merge
// methods; workflow handlers read from it and publish UI events through its
// notifier, but never write entity state directly.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-memdb"

	"github.com/BergQuester/client/internal/domain"
)

type opKey struct {
	Op     string
	Target string
}

// OpError is a stored per-operation failure, keyed by operation and target.
type OpError struct {
	Op     string `json:"op"`
	Target string `json:"target"`
	Desc   string `json:"desc"`
}

// Store is the in-memory cache. Teams and channels live in memdb tables;
// the remaining slices are process-wide singletons guarded by mu.
type Store struct {
	log      hclog.Logger
	db       *memdb.MemDB
	notifier *Notifier

	mu                sync.Mutex
	details           map[string]domain.TeamDetails
	retention         map[string]domain.RetentionPolicy
	resetUsers        map[string][]domain.ResetUser
	newTeams          map[string]struct{}
	chosen            map[string]struct{}
	sawChatBanner     bool
	sawSubteamsBanner bool
	opErrors          map[opKey]OpError
	waiting           map[domain.WaitingKey]int
	loading           map[string]bool
}

func New(log hclog.Logger) (*Store, error) {
	db, err := memdb.NewMemDB(dbSchema())
	if err != nil {
		return nil, fmt.Errorf("building cache schema: %w", err)
	}
	return &Store{
		log:        log.Named("store"),
		db:         db,
		notifier:   NewNotifier(log.Named("notifier")),
		details:    make(map[string]domain.TeamDetails),
		retention:  make(map[string]domain.RetentionPolicy),
		resetUsers: make(map[string][]domain.ResetUser),
		newTeams:   make(map[string]struct{}),
		chosen:     make(map[string]struct{}),
		opErrors:   make(map[opKey]OpError),
		waiting:    make(map[domain.WaitingKey]int),
		loading:    make(map[string]bool),
	}, nil
}

// Notifier exposes the state-update event stream.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// Teams returns the roster sorted by team name.
func (s *Store) Teams() []domain.TeamMeta {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(teamTable, pk)
	if err != nil {
		s.log.Error("reading roster", "err", err)
		return nil
	}
	var out []domain.TeamMeta
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*domain.TeamMeta))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TeamByName looks a roster entry up by its current name.
func (s *Store) TeamByName(name string) (domain.TeamMeta, bool) {
	return s.teamBy(pk, name)
}

// TeamByID looks a roster entry up by its stable ID.
func (s *Store) TeamByID(id domain.TeamID) (domain.TeamMeta, bool) {
	return s.teamBy(teamIDIndex, string(id))
}

func (s *Store) teamBy(index, key string) (domain.TeamMeta, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(teamTable, index, key)
	if err != nil || raw == nil {
		return domain.TeamMeta{}, false
	}
	return *raw.(*domain.TeamMeta), true
}

// Details returns the cached detail slice for a team.
func (s *Store) Details(name string) (domain.TeamDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	det, ok := s.details[name]
	if !ok {
		return domain.TeamDetails{}, false
	}
	return cloneDetails(det), true
}

// Channels returns the cached channels of a team sorted by channel name.
func (s *Store) Channels(team string) []domain.ChannelInfo {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(channelTable, teamIndex, team)
	if err != nil {
		s.log.Error("reading channels", "team", team, "err", err)
		return nil
	}
	var out []domain.ChannelInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*domain.ChannelInfo))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelName < out[j].ChannelName })
	return out
}

// Retention returns the cached policy for a team name or conversation ID.
func (s *Store) Retention(key string) (domain.RetentionPolicy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.retention[key]
	return p, ok
}

// ChosenChannels returns the sorted set of team names with a recorded
// "use default channels" decision.
func (s *Store) ChosenChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.chosen))
	for name := range s.chosen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ChosenChannelsCount returns the size of the locally tracked chosen set.
func (s *Store) ChosenChannelsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chosen)
}

// ResetUsers returns the per-team reset-user tracking map.
func (s *Store) ResetUsers() map[string][]domain.ResetUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]domain.ResetUser, len(s.resetUsers))
	for team, users := range s.resetUsers {
		out[team] = append([]domain.ResetUser(nil), users...)
	}
	return out
}

// HasBadges reports whether any team badge state is outstanding.
func (s *Store) HasBadges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.newTeams) > 0 || len(s.resetUsers) > 0
}

// OpError returns the stored failure for an operation and target.
func (s *Store) OpError(op, target string) (OpError, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.opErrors[opKey{Op: op, Target: target}]
	return e, ok
}

// SetOpError stores a remote failure keyed by operation and target.
func (s *Store) SetOpError(op, target, desc string) {
	s.mu.Lock()
	e := OpError{Op: op, Target: target, Desc: desc}
	s.opErrors[opKey{Op: op, Target: target}] = e
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventOpErrorSet, TeamName: target, Payload: e})
}

// ClearOpError removes a stored failure, notifying only if one was present.
func (s *Store) ClearOpError(op, target string) {
	s.mu.Lock()
	key := opKey{Op: op, Target: target}
	_, had := s.opErrors[key]
	delete(s.opErrors, key)
	s.mu.Unlock()
	if had {
		s.notifier.Publish(Event{Type: EventOpErrorSet, TeamName: target, Payload: OpError{Op: op, Target: target}})
	}
}

// PublishGlobalError emits a generic failure description on the global
// error channel.
func (s *Store) PublishGlobalError(desc string) {
	s.notifier.Publish(Event{Type: EventGlobalError, Payload: desc})
}

// StartWaiting increments the busy count for a waiting key.
func (s *Store) StartWaiting(key domain.WaitingKey) {
	s.changeWaiting(key, 1)
}

// FinishWaiting decrements the busy count for a waiting key.
func (s *Store) FinishWaiting(key domain.WaitingKey) {
	s.changeWaiting(key, -1)
}

func (s *Store) changeWaiting(key domain.WaitingKey, delta int) {
	s.mu.Lock()
	n := s.waiting[key] + delta
	if n <= 0 {
		delete(s.waiting, key)
		n = 0
	} else {
		s.waiting[key] = n
	}
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventWaitingChanged, Payload: map[domain.WaitingKey]int{key: n}})
}

// WaitingCount returns the busy count for a waiting key.
func (s *Store) WaitingCount(key domain.WaitingKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting[key]
}

// SetLoading flips the per-team loading flag. The flag is the convention
// that prevents overlapping identical requests.
func (s *Store) SetLoading(team string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading {
		s.loading[team] = true
	} else {
		delete(s.loading, team)
	}
}

// Loading reports whether a team refresh is already in flight.
func (s *Store) Loading(team string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[team]
}

func cloneDetails(det domain.TeamDetails) domain.TeamDetails {
	out := det
	out.Members = make(map[string]domain.MemberInfo, len(det.Members))
	for k, v := range det.Members {
		out.Members[k] = v
	}
	out.Invites = make(map[string]domain.InviteInfo, len(det.Invites))
	for k, v := range det.Invites {
		out.Invites[k] = v
	}
	out.Requests = append([]domain.RequestInfo(nil), det.Requests...)
	out.Subteams = append([]string(nil), det.Subteams...)
	return out
}
