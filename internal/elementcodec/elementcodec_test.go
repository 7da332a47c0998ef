package elementcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrips(t *testing.T) {
	records := []Record{
		{
			Concept:  "BALANCE",
			Type:     "SIMPLE",
			Instance: "bus",
			Fields: map[string]any{
				"price": 42.5,
			},
		},
		{
			Concept:  "FLOW",
			Type:     "SIMPLE",
			Instance: "line",
			Fields: map[string]any{
				"upper": 100.0,
				"arrows": []any{
					map[string]any{"balance": "bus", "ingoing": true},
				},
			},
		},
	}

	b, err := Marshal(records)
	require.NoError(t, err)

	got, err := Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BALANCE", got[0].Concept)
	assert.Equal(t, "bus", got[0].Instance)
	assert.InDelta(t, 42.5, got[0].Fields["price"], 1e-9)
	assert.Equal(t, "FLOW", got[1].Concept)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}
