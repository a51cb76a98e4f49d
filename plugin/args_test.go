package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/types"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		args     string
		goal     string
		category handoff.Category
	}{
		{"implement phase 2", "implement phase 2", ""},
		{"  spaced goal  ", "spaced goal", ""},
		{"", "", ""},
		{"--type=planning design the cache", "design the cache", handoff.CategoryPlanning},
		{"--type research   why is login slow", "why is login slow", handoff.CategoryResearch},
		{"--type=impl", "", handoff.CategoryImpl},
		{"--type\tgeneral keep going", "keep going", handoff.CategoryGeneral},
		{"--typescript migration", "--typescript migration", ""},
		{"fix --type=impl handling", "fix --type=impl handling", ""},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			goal, category, err := ParseArguments(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.goal, goal)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestParseArguments_InvalidType(t *testing.T) {
	for _, args := range []string{"--type=bogus do it", "--type", "--type= do it"} {
		_, _, err := ParseArguments(args)
		require.Error(t, err, args)
		assert.True(t, types.IsCode(err, types.ErrInvalidInput))
	}
}
