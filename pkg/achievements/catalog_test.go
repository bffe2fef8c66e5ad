package achievements

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForHeightProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Raising the height never loses an achievement
	properties.Property("ForHeight is monotonic in height", prop.ForAll(
		func(h1, h2 int) bool {
			if h1 > h2 {
				h1, h2 = h2, h1
			}
			lower := ForHeight(h1)
			higher := ForHeight(h2)

			ids := make(map[string]bool, len(higher))
			for _, d := range higher {
				ids[d.ID] = true
			}
			for _, d := range lower {
				if !ids[d.ID] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 500),
		gen.IntRange(0, 500),
	))

	properties.Property("ForHeight returns only height criteria at or under the height", prop.ForAll(
		func(h int) bool {
			for _, d := range ForHeight(h) {
				if d.Criteria.Kind != KindHeight || d.Criteria.Threshold > h {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestForHeightOrder(t *testing.T) {
	// Catalog declaration order is preserved, not re-sorted
	defs := ForHeight(200)
	require.Len(t, defs, 4)
	assert.Equal(t, "first_steps", defs[0].ID)
	assert.Equal(t, "getting_high", defs[1].ID)
	assert.Equal(t, "sky_walker", defs[2].ID)
	assert.Equal(t, "stratosphere", defs[3].ID)
}

func TestForHeightBelowFirstThreshold(t *testing.T) {
	assert.Empty(t, ForHeight(9))
	assert.Len(t, ForHeight(10), 1)
	assert.Empty(t, ForHeight(0))
}

func TestCompletionAchievements(t *testing.T) {
	defs := CompletionAchievements()
	require.Len(t, defs, 3)
	for _, d := range defs {
		switch d.Criteria.Kind {
		case KindCompletion, KindCompletionTime, KindCompletions:
		default:
			t.Errorf("unexpected criteria kind %q in completion set", d.Criteria.Kind)
		}
	}
}

func TestGamesPlayedAchievements(t *testing.T) {
	defs := GamesPlayedAchievements()
	require.Len(t, defs, 1)
	assert.Equal(t, "persistent", defs[0].ID)
	assert.Equal(t, 10, defs[0].Criteria.Threshold)
}

func TestByID(t *testing.T) {
	d, ok := ByID("redemption")
	require.True(t, ok)
	assert.Equal(t, KindCompletion, d.Criteria.Kind)

	_, ok = ByID("does_not_exist")
	assert.False(t, ok)
}

func TestCatalogIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Catalog {
		assert.Falsef(t, seen[d.ID], "duplicate catalog id %q", d.ID)
		seen[d.ID] = true
	}
}
