package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bharathj0410/leadrabbit/pkg/models"
)

func TestNormalizeStatus_Aliases(t *testing.T) {
	tests := []struct {
		input string
		want  models.LeadStatus
	}{
		{"new", models.StatusNew},
		{"Open", models.StatusNew},
		{"FRESH", models.StatusNew},
		{"interested", models.StatusInterested},
		{"hot", models.StatusInterested},
		{"Warm", models.StatusInterested},
		{"follow up", models.StatusInterested},
		{"follow-up", models.StatusInterested},
		{"follow_up", models.StatusInterested},
		{"  Follow   Up  ", models.StatusInterested},
		{"not interested", models.StatusNotInterested},
		{"Not-Interested", models.StatusNotInterested},
		{"uninterested", models.StatusNotInterested},
		{"cold", models.StatusNotInterested},
		{"rejected", models.StatusNotInterested},
		{"dead", models.StatusNotInterested},
		{"deal", models.StatusDeal},
		{"Deal Done", models.StatusDeal},
		{"deal_done", models.StatusDeal},
		{"closed", models.StatusDeal},
		{"won", models.StatusDeal},
		{"converted", models.StatusDeal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeStatus(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeStatus_NoMatch(t *testing.T) {
	for _, input := range []string{"", "  ", "maybe", "in progress", "dealdone", "new lead"} {
		t.Run(input, func(t *testing.T) {
			_, ok := NormalizeStatus(input)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeStatus_CanonicalValuesOnly(t *testing.T) {
	// Everything the table resolves to must be one of the four stored values.
	canonical := map[models.LeadStatus]bool{
		models.StatusNew:           true,
		models.StatusInterested:    true,
		models.StatusNotInterested: true,
		models.StatusDeal:          true,
	}

	for alias := range statusAliases {
		got, ok := NormalizeStatus(alias)
		assert.True(t, ok, "alias %q should resolve", alias)
		assert.True(t, canonical[got], "alias %q resolved outside the closed enum", alias)
	}
}
