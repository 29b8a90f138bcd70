package store

import (
	"github.com/hashicorp/go-memdb"
)

const (
	teamTable    = "team"
	channelTable = "channel"

	pk          = "id"
	teamIDIndex = "team_id"
	teamIndex   = "team"
)

// dbSchema describes the normalized tables. Teams are keyed by name for the
// common lookup path and indexed by their stable ID so renames never break
// ID-keyed references; channels are keyed by conversation ID and indexed by
// owning team.
func dbSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			teamTable: {
				Name: teamTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
					teamIDIndex: {
						Name:    teamIDIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			channelTable: {
				Name: channelTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ConversationID"},
					},
					teamIndex: {
						Name:    teamIndex,
						Indexer: &memdb.StringFieldIndex{Field: "TeamName"},
					},
				},
			},
		},
	}
}
