package espn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridironlabs/gridiron/pkg/espn"
)

func TestTeamID(t *testing.T) {
	tests := []struct {
		abbr   string
		wantID int
		wantOK bool
	}{
		{"KC", 12, true},
		{"kc", 12, true},
		{" kc ", 12, true},
		{"ARI", 22, true},
		{"HOU", 34, true},
		{"BAL", 33, true},
		{"WAS", 28, true},
		{"XX", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.abbr, func(t *testing.T) {
			id, ok := espn.TeamID(tt.abbr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
