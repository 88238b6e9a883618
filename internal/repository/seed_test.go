package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSeed(t *testing.T) {
	input := `[
	  {"tt_number": "TT-1", "status": null, "severity": "Critical", "open_time": "2024-03-14T06:00:00Z",
	   "tt_aging_minutes": 1800, "site_name": "Tower 7", "supervisior": "R. Iyer"},
	  {"tt_number": "TT-2", "status": "Open"}
	]`

	tickets, err := DecodeSeed(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.False(t, first.Status.Valid)
	assert.Equal(t, "Critical", first.Severity.String)
	assert.True(t, first.OpenTime.Time.Equal(time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1800), first.AgingMinutes.Int64)
	assert.Equal(t, "R. Iyer", first.Supervisor.String)

	assert.Equal(t, "Open", tickets[1].Status.String)
	assert.False(t, tickets[1].OpenTime.Valid)
}

func TestDecodeSeed_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":      `[{"tt_number": }]`,
		"missing number": `[{"status": "Open"}]`,
		"duplicate":      `[{"tt_number": "TT-1"}, {"tt_number": "TT-1"}]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSeed(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile_ShippedFixtures(t *testing.T) {
	tickets, err := LoadSeedFile("../../seed/tickets.json")
	require.NoError(t, err)
	assert.Len(t, tickets, 24)
	assert.False(t, tickets[0].Status.Valid)
}
