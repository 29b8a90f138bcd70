package store

import (
	"fmt"
	"sort"

	"github.com/BergQuester/client/internal/domain"
)

// SetRoster replaces the full team roster with a server-authoritative
// snapshot. This is a total overwrite per refresh, not a field-level patch,
// which is what makes it idempotent and rename-safe.
func (s *Store) SetRoster(teams []domain.TeamMeta) error {
	txn := s.db.Txn(true)
	if _, err := txn.DeleteAll(teamTable, pk); err != nil {
		txn.Abort()
		return fmt.Errorf("clearing roster: %w", err)
	}
	for i := range teams {
		team := teams[i]
		if err := txn.Insert(teamTable, &team); err != nil {
			txn.Abort()
			return fmt.Errorf("inserting roster entry %q: %w", team.Name, err)
		}
	}
	txn.Commit()
	s.notifier.Publish(Event{Type: EventTeamsSet, Payload: s.Teams()})
	return nil
}

// SetDetails atomically replaces a team's members, invites, requests,
// subteams, and settings. Normalization applied before storage:
//   - a default-join role of none becomes reader
//   - members and invites whose resolved role is none are never materialized
//   - requests are deduplicated and sorted by username
//
// An empty request set explicitly clears previously cached requests for the
// team; absence is a signal, not a no-op.
func (s *Store) SetDetails(name string, det domain.TeamDetails) {
	clean := domain.TeamDetails{
		Members:  make(map[string]domain.MemberInfo, len(det.Members)),
		Invites:  make(map[string]domain.InviteInfo, len(det.Invites)),
		Subteams: append([]string(nil), det.Subteams...),
		Settings: det.Settings,
		Showcase: det.Showcase,
	}
	if clean.Settings.JoinAs == domain.RoleNone || clean.Settings.JoinAs == "" {
		clean.Settings.JoinAs = domain.RoleReader
	}
	for username, m := range det.Members {
		if m.Role == domain.RoleNone {
			continue
		}
		clean.Members[username] = m
	}
	for id, inv := range det.Invites {
		if inv.Role == domain.RoleNone {
			continue
		}
		if _, err := inv.Category(); err != nil {
			s.log.Warn("dropping undecodable invite", "team", name, "invite", id, "err", err)
			continue
		}
		clean.Invites[id] = inv
	}
	seen := make(map[domain.RequestInfo]struct{}, len(det.Requests))
	for _, req := range det.Requests {
		if _, dup := seen[req]; dup {
			continue
		}
		seen[req] = struct{}{}
		clean.Requests = append(clean.Requests, req)
	}
	sort.Slice(clean.Requests, func(i, j int) bool {
		return clean.Requests[i].Username < clean.Requests[j].Username
	})

	s.mu.Lock()
	s.details[name] = clean
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventDetailsSet, TeamName: name, Payload: cloneDetails(clean)})
}

// SetChannels replaces the channel list of one team.
func (s *Store) SetChannels(team string, channels []domain.ChannelInfo) error {
	txn := s.db.Txn(true)
	if _, err := txn.DeleteAll(channelTable, teamIndex, team); err != nil {
		txn.Abort()
		return fmt.Errorf("clearing channels for %q: %w", team, err)
	}
	for i := range channels {
		ch := channels[i]
		ch.TeamName = team
		if err := txn.Insert(channelTable, &ch); err != nil {
			txn.Abort()
			return fmt.Errorf("inserting channel %q: %w", ch.ChannelName, err)
		}
	}
	txn.Commit()
	s.notifier.Publish(Event{Type: EventChannelsSet, TeamName: team, Payload: s.Channels(team)})
	return nil
}

// MergeRetention decodes a server-reported policy and stores it. Decode
// failure, including inherit at team scope, keeps the previously cached
// value unchanged.
func (s *Store) MergeRetention(key string, raw domain.RawRetentionPolicy, scope domain.RetentionScope) error {
	policy, err := domain.DecodeRetention(raw, scope)
	if err != nil {
		s.log.Warn("keeping previous retention policy", "key", key, "err", err)
		return err
	}
	s.SetRetention(key, policy)
	return nil
}

// SetRetention stores an already-decoded policy.
func (s *Store) SetRetention(key string, policy domain.RetentionPolicy) {
	s.mu.Lock()
	s.retention[key] = policy
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventRetentionSet, TeamName: key, Payload: policy})
}

// MergeChosenChannels folds team names into the chosen-channels set with
// union semantics, so concurrent updates from multiple clients never lose
// entries and repeated adds are idempotent.
func (s *Store) MergeChosenChannels(names []string) {
	s.mu.Lock()
	for _, name := range names {
		s.chosen[name] = struct{}{}
	}
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventChosenChannelsSet, Payload: s.ChosenChannels()})
}

// SetSawChatBanner records the banner-seen flag delivered via push state.
func (s *Store) SetSawChatBanner(seen bool) {
	s.mu.Lock()
	s.sawChatBanner = seen
	chat, subteams := s.sawChatBanner, s.sawSubteamsBanner
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventBannersSet, Payload: map[string]bool{
		"sawChatBanner":     chat,
		"sawSubteamsBanner": subteams,
	}})
}

// SetSawSubteamsBanner records the subteams banner-seen flag.
func (s *Store) SetSawSubteamsBanner(seen bool) {
	s.mu.Lock()
	s.sawSubteamsBanner = seen
	chat, subteams := s.sawChatBanner, s.sawSubteamsBanner
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventBannersSet, Payload: map[string]bool{
		"sawChatBanner":     chat,
		"sawSubteamsBanner": subteams,
	}})
}

// SetBadgeState replaces the badge slice: newly created teams and per-team
// reset users.
func (s *Store) SetBadgeState(newTeams []string, resetUsers map[string][]domain.ResetUser) {
	s.mu.Lock()
	s.newTeams = make(map[string]struct{}, len(newTeams))
	for _, name := range newTeams {
		s.newTeams[name] = struct{}{}
	}
	s.resetUsers = make(map[string][]domain.ResetUser, len(resetUsers))
	for team, users := range resetUsers {
		s.resetUsers[team] = append([]domain.ResetUser(nil), users...)
	}
	s.mu.Unlock()
	s.notifier.Publish(Event{Type: EventBadgeStateSet, Payload: map[string]any{
		"newTeams":   append([]string(nil), newTeams...),
		"resetUsers": s.ResetUsers(),
	}})
}
