package orchestrator

import (
	"fmt"
	"strings"
)

// listSummary renders a name list for a human-readable result message. Up
// to three names are spelled out; beyond that the first two are kept and
// the rest collapse into a count of noun (e.g. "teams").
func listSummary(names []string, noun string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + "."
	case 2:
		return names[0] + " and " + names[1] + "."
	case 3:
		return names[0] + ", " + names[1] + ", and " + names[2] + "."
	default:
		return fmt.Sprintf("%s, %s, and %d %s.", names[0], names[1], len(names)-2, noun)
	}
}

func addedToTeamsMessage(username string, teams []string) string {
	return fmt.Sprintf("%s was added to %s", username, listSummary(teams, "teams"))
}

func failedToAddToTeamsMessage(username string, teams []string) string {
	return fmt.Sprintf("Failed to add %s to %s", username, listSummary(teams, "teams"))
}

func addedPeopleMessage(team string, users []string) string {
	return fmt.Sprintf("Added to %s: %s", team, listSummary(users, "users"))
}

func failedToAddPeopleMessage(team string, users []string) string {
	return fmt.Sprintf("Failed to add to %s: %s", team, listSummary(users, "users"))
}

func malformedAddressesMessage(count int) string {
	noun := "addresses"
	if count == 1 {
		noun = "address"
	}
	return fmt.Sprintf("There was an error parsing %d %s.", count, noun)
}

func joinSentences(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
