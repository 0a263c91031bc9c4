package authority

import "github.com/vocdoni/zkvote-core/types"

// permissions is the fixed capability table of each authority level.
var permissions = map[types.AuthorityLevel]map[types.Action]bool{
	types.LevelAdmin: {
		types.ActionCreateElection:  true,
		types.ActionStartElection:   true,
		types.ActionEndElection:     true,
		types.ActionAddAuthority:    true,
		types.ActionRemoveAuthority: true,
		types.ActionVerifyHumanity:  true,
		types.ActionViewResults:     true,
	},
	types.LevelModerator: {
		types.ActionStartElection:  true,
		types.ActionEndElection:    true,
		types.ActionVerifyHumanity: true,
		types.ActionViewResults:    true,
	},
	types.LevelObserver: {
		types.ActionViewResults:   true,
		types.ActionViewElections: true,
	},
}

// HasPermission reports whether level grants action.
func HasPermission(level types.AuthorityLevel, action types.Action) bool {
	return permissions[level][action]
}

// Permissions lists the actions granted to level, in declaration order.
func Permissions(level types.AuthorityLevel) []types.Action {
	out := []types.Action{}
	for _, a := range types.Actions {
		if HasPermission(level, a) {
			out = append(out, a)
		}
	}
	return out
}
