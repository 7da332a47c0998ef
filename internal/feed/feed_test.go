package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/aristath/gridsched/internal/timeseries"
	"github.com/aristath/gridsched/internal/timeutil"
)

func startTickServer(t *testing.T, ticks []Tick) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		for _, tick := range ticks {
			data, _ := json.Marshal(tick)
			if err := conn.Write(r.Context(), websocket.MessageText, data); err != nil {
				return
			}
		}
		// keep the connection open briefly so the client finishes reading
		time.Sleep(200 * time.Millisecond)
	}))
	return srv
}

func TestFeedIngestsTicksFromWebSocket(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []Tick{
		{Time: base, Value: 10},
		{Time: base.Add(time.Hour), Value: 20},
	}
	srv := startTickServer(t, ticks)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	f := New(wsURL, 0, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f.Start(ctx)

	require.Eventually(t, func() bool {
		_, err := f.WeightedAverage(base, timeutil.UnitsTimeDelta{Unit: time.Hour, Ranges: []timeutil.UnitRange{{From: 0, To: 0}}})
		return err == nil
	}, time.Second, 10*time.Millisecond)

	v, err := f.WeightedAverage(base, timeutil.UnitsTimeDelta{Unit: time.Hour, Ranges: []timeutil.UnitRange{{From: 0, To: 0}}})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestFeedWeightedAverageEmptyBeforeFirstTick(t *testing.T) {
	f := New("ws://unused.invalid", 0, zerolog.Nop())
	_, err := f.WeightedAverage(time.Now(), timeutil.UnitsTimeDelta{Unit: time.Hour, Ranges: []timeutil.UnitRange{{From: 0, To: 0}}})
	assert.ErrorIs(t, err, timeseries.ErrEmptyQuery)
}
