// Package feed ingests a live exogenous price/volume tick stream over a
// WebSocket and exposes it as a timeseries.TimeVector, so it can be
// wired directly into a Balance's Price or an exogenous RHSTerm without
// the solve cascade knowing it's backed by a socket rather than a
// static series.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/gridsched/internal/timeseries"
	"github.com/aristath/gridsched/internal/timeutil"
)

const (
	dialTimeout        = 30 * time.Second
	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute
)

// Tick is one incoming point on the wire: a timestamp and its value
// (price, exogenous demand, whatever the caller's channel carries).
type Tick struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Feed is a TimeVector backed by a live tick stream. Reads
// (WeightedAverage) never block on the network: they read whatever
// snapshot the last successfully ingested tick batch produced.
// Maxlen bounds how many trailing points that snapshot keeps, so a
// long-running connection doesn't grow the index without bound.
type Feed struct {
	url    string
	maxlen int
	log    zerolog.Logger

	current atomic.Pointer[timeseries.Infinite]

	// accMu guards the accumulating index/values slices that back the
	// next rebuilt Infinite; current holds the immutable published copy.
	accMu  sync.Mutex
	index  []time.Time
	values []float64
}

// New builds a Feed against a dormant empty series; call Start to
// connect and begin ingesting. WeightedAverage on an empty Feed returns
// timeseries.ErrEmptyQuery until the first tick arrives.
func New(url string, maxlen int, log zerolog.Logger) *Feed {
	f := &Feed{
		url:    url,
		maxlen: maxlen,
		log:    log.With().Str("component", "feed").Logger(),
	}
	empty, _ := timeseries.NewInfinite(nil, nil)
	f.current.Store(empty)
	return f
}

// WeightedAverage implements timeseries.TimeVector over whatever the
// feed has ingested so far.
func (f *Feed) WeightedAverage(start time.Time, delta timeutil.TimeDelta) (float64, error) {
	return f.current.Load().WeightedAverage(start, delta)
}

// Start dials the WebSocket and ingests ticks until ctx is cancelled,
// retrying failed dials with exponential backoff — the same backoff
// shape as the teacher's market-status client, scaled down since a stale
// price feed degrades solve quality rather than correctness the way a
// stale market-hours cache does. When a connection's read loop ends,
// the feed re-dials at once, and the backoff restarts from its first step.
func (f *Feed) Start(ctx context.Context) {
	go f.run(ctx)
}

func (f *Feed) run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := f.dial(ctx)
		if err != nil {
			attempt++
			delay := backoff(attempt)
			f.log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("feed dial failed")
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}

		attempt = 0
		f.readLoop(ctx, conn)
		conn.Close(websocket.StatusNormalClosure, "")

		if ctx.Err() != nil {
			return
		}
	}
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed %s: %w", f.url, err)
	}
	return conn, nil
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn().Err(err).Msg("feed read failed, reconnecting")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var tick Tick
		if err := json.Unmarshal(data, &tick); err != nil {
			f.log.Error().Err(err).Msg("feed: malformed tick, dropping")
			continue
		}
		f.ingest(tick)
	}
}

// ingest appends tick to the current series and atomically swaps in the
// rebuilt Infinite, trimming to maxlen trailing points. Infinite is
// immutable once built, so a rebuild-and-swap is the natural way to
// extend it without touching its own (already tested) internals.
func (f *Feed) ingest(tick Tick) {
	f.accMu.Lock()
	defer f.accMu.Unlock()

	f.index = append(f.index, tick.Time)
	f.values = append(f.values, tick.Value)

	if f.maxlen > 0 && len(f.index) > f.maxlen {
		trim := len(f.index) - f.maxlen
		f.index = f.index[trim:]
		f.values = f.values[trim:]
	}

	index := make([]time.Time, len(f.index))
	values := make([]float64, len(f.values))
	copy(index, f.index)
	copy(values, f.values)

	next, err := timeseries.NewInfinite(index, values)
	if err != nil {
		f.log.Error().Err(err).Msg("feed: rebuilt series rejected, keeping previous")
		return
	}
	f.current.Store(next)
}

func backoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}
