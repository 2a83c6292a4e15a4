package task

import "github.com/example/taskboard/modules/auth"

// SelectAssignee picks the user with the fewest active tasks. Users are
// considered in slice order, so feeding a deterministically ordered list
// makes ties reproducible. Returns false when the list is empty.
func SelectAssignee(users []auth.UserInfo, activeCounts map[string]int) (auth.UserInfo, bool) {
	if len(users) == 0 {
		return auth.UserInfo{}, false
	}
	best := users[0]
	bestCount := activeCounts[best.ID]
	for _, u := range users[1:] {
		if c := activeCounts[u.ID]; c < bestCount {
			best = u
			bestCount = c
		}
	}
	return best, true
}
