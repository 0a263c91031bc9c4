package authority

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/types"
)

func TestPermissionMatrix(t *testing.T) {
	c := qt.New(t)
	want := map[types.AuthorityLevel][]types.Action{
		types.LevelAdmin: {
			types.ActionCreateElection, types.ActionStartElection, types.ActionEndElection,
			types.ActionAddAuthority, types.ActionRemoveAuthority, types.ActionVerifyHumanity,
			types.ActionViewResults,
		},
		types.LevelModerator: {
			types.ActionStartElection, types.ActionEndElection, types.ActionVerifyHumanity,
			types.ActionViewResults,
		},
		types.LevelObserver: {
			types.ActionViewResults, types.ActionViewElections,
		},
	}
	for _, level := range types.AuthorityLevels {
		granted := map[types.Action]bool{}
		for _, a := range want[level] {
			granted[a] = true
		}
		for _, action := range types.Actions {
			c.Assert(HasPermission(level, action), qt.Equals, granted[action],
				qt.Commentf("%s / %s", level, action))
		}
		c.Assert(Permissions(level), qt.DeepEquals, want[level])
	}
	// admin does not hold view_elections
	c.Assert(HasPermission(types.LevelAdmin, types.ActionViewElections), qt.IsFalse)
	c.Assert(HasPermission(types.AuthorityLevel(0), types.ActionViewResults), qt.IsFalse)
}
