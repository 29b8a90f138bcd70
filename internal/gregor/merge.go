package gregor

import (
	"github.com/hashicorp/go-hclog"

	"github.com/BergQuester/client/internal/store"
)

// Merge folds pushed items into the cache. Each category is handled
// independently: a body that fails to decode is logged and skipped without
// disturbing sibling categories, and unrecognized categories are ignored.
func Merge(log hclog.Logger, st *store.Store, items []Item) {
	for _, item := range items {
		switch item.Category {
		case CategoryChosenChannels:
			teams, err := DecodeChosenChannels(item.Body)
			if err != nil {
				log.Warn("skipping chosen channels item", "err", err)
				continue
			}
			st.MergeChosenChannels(teams)
		case CategorySawChatBanner:
			seen, err := decodeSeenFlag(item.Body)
			if err != nil {
				log.Warn("skipping chat banner item", "err", err)
				continue
			}
			st.SetSawChatBanner(seen)
		case CategorySawSubteamsBanner:
			seen, err := decodeSeenFlag(item.Body)
			if err != nil {
				log.Warn("skipping subteams banner item", "err", err)
				continue
			}
			st.SetSawSubteamsBanner(seen)
		}
	}
}
