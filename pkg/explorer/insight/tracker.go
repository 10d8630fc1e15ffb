package insight

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	eventBlock     = "block"
	eventTx        = "tx"
	eventSubscribe = "subscribe"
	roomInventory  = "inv"
)

// TrackerOptions ...
type TrackerOptions struct {
	// SettleDelay is waited after the socket is open before subscribing.
	SettleDelay time.Duration
	// ReconnectDelay is waited before dialing again after a failure.
	ReconnectDelay time.Duration
	ConnectTimeout time.Duration
	Dialer         *websocket.Dialer
}

// DefaultTrackerOptions ...
func DefaultTrackerOptions() TrackerOptions {
	return TrackerOptions{
		SettleDelay:    500 * time.Millisecond,
		ReconnectDelay: 2 * time.Second,
		ConnectTimeout: time.Second,
		Dialer:         websocket.DefaultDialer,
	}
}

// Fetcher resolves the payloads announced by the push channel.
type Fetcher interface {
	GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error)
	GetBlock(ctx context.Context, hash string) (*entity.Block, error)
}

type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type txAnnouncement struct {
	TxID string                        `json:"txid"`
	Vout []map[string]json.RawMessage `json:"vout"`
}

// events handled by the tracker loop, each tagged with the connection
// generation it belongs to.
type (
	dialedEvent struct {
		gen  uint64
		conn *websocket.Conn
		err  error
	}
	settledEvent struct {
		gen uint64
	}
	messageEvent struct {
		gen  uint64
		data []byte
	}
	droppedEvent struct {
		gen uint64
		err error
	}
	reconnectEvent struct {
		gen uint64
	}
)

// Tracker is the push client of an Insight backend. A single loop goroutine
// owns the connection and drives the state machine:
//
//	Disconnected -> Connecting -> Connected -> Reconnecting -> Connecting ...
//
// Close is the only way to reach the Closed state.
type Tracker struct {
	*explorer.TrackerBase

	url     string
	fetcher Fetcher
	opts    TrackerOptions
	logger  *log.Entry

	events    chan interface{}
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc

	stateLock sync.RWMutex
	state     explorer.TrackerState

	// owned by the loop goroutine.
	conn       *websocket.Conn
	generation uint64
}

// NewTracker returns a tracker and starts connecting in background.
func NewTracker(url string, fetcher Fetcher, opts TrackerOptions) *Tracker {
	defaults := DefaultTrackerOptions()
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaults.SettleDelay
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaults.ReconnectDelay
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaults.ConnectTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = defaults.Dialer
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		TrackerBase: explorer.NewTrackerBase(),
		url:         url,
		fetcher:     fetcher,
		opts:        opts,
		logger:      log.WithField("tracker", url),
		events:      make(chan interface{}, 16),
		quit:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		state:       explorer.Disconnected,
	}

	t.wg.Add(1)
	go t.run()
	return t
}

func (t *Tracker) State() explorer.TrackerState {
	t.stateLock.RLock()
	defer t.stateLock.RUnlock()
	return t.state
}

// Close releases the socket, drops every listener and stops reconnecting.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.cancel()
		t.wg.Wait()
		t.ClearListeners()
	})
	return nil
}

func (t *Tracker) run() {
	defer t.wg.Done()

	t.connect()
	for {
		select {
		case <-t.quit:
			t.teardown()
			t.setState(explorer.Closed)
			return
		case ev := <-t.events:
			t.handle(ev)
		}
	}
}

func (t *Tracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case dialedEvent:
		if e.gen != t.generation {
			if e.conn != nil {
				e.conn.Close()
			}
			return
		}
		if e.err != nil {
			t.logger.WithError(e.err).Debug("socket connection error")
			t.fireAsync(func() { t.FireConnectionError(e.err) })
			t.scheduleReconnect()
			return
		}
		t.conn = e.conn
		t.wg.Add(1)
		go t.read(e.gen, e.conn)
		t.after(t.opts.SettleDelay, settledEvent{e.gen})

	case settledEvent:
		if e.gen != t.generation || t.conn == nil {
			return
		}
		err := t.conn.WriteJSON(map[string]string{
			"event": eventSubscribe,
			"data":  roomInventory,
		})
		if err != nil {
			t.logger.WithError(err).Warn("unable to subscribe. Trying to reconnect...")
			t.scheduleReconnect()
			return
		}
		t.setState(explorer.Connected)
		t.fireAsync(t.FireConnect)

	case messageEvent:
		if e.gen != t.generation {
			return
		}
		t.handleMessage(e.data)

	case droppedEvent:
		if e.gen != t.generation {
			return
		}
		t.logger.WithError(e.err).Warn("connection dropped unexpectedly. Trying to reconnect...")
		t.scheduleReconnect()

	case reconnectEvent:
		if e.gen != t.generation {
			return
		}
		t.connect()
	}
}

func (t *Tracker) connect() {
	t.generation++
	gen := t.generation
	t.setState(explorer.Connecting)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(t.ctx, t.opts.ConnectTimeout)
		defer cancel()

		conn, _, err := t.opts.Dialer.DialContext(ctx, t.url, nil)
		t.send(dialedEvent{gen, conn, err})
	}()
}

// scheduleReconnect drops the current connection and dials again after the
// reconnect delay. Bumping the generation discards any event still in flight
// for the old connection, so at most one reconnection is pending.
func (t *Tracker) scheduleReconnect() {
	t.teardown()
	t.generation++
	t.setState(explorer.Reconnecting)
	t.after(t.opts.ReconnectDelay, reconnectEvent{t.generation})
}

func (t *Tracker) teardown() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *Tracker) read(gen uint64, conn *websocket.Conn) {
	defer t.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.send(droppedEvent{gen, err})
			return
		}
		t.send(messageEvent{gen, data})
	}
}

func (t *Tracker) handleMessage(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.logger.WithError(err).Debug("skipping malformed message")
		return
	}

	switch msg.Event {
	case eventBlock:
		var hash string
		if err := json.Unmarshal(msg.Data, &hash); err != nil {
			t.logger.WithError(err).Debug("skipping malformed block message")
			return
		}
		go t.handleNewBlock(hash)

	case eventTx:
		var ann txAnnouncement
		if err := json.Unmarshal(msg.Data, &ann); err != nil {
			t.logger.WithError(err).Debug("skipping malformed tx message")
			return
		}
		for _, out := range ann.Vout {
			for addr := range out {
				if t.IsAddressTracked(addr) {
					go t.handleAddressTx(addr, ann.TxID)
					return
				}
			}
		}
	}
}

func (t *Tracker) handleNewBlock(hash string) {
	block, err := t.fetcher.GetBlock(t.ctx, hash)
	if err != nil {
		t.logger.WithError(err).WithField("block", hash).Warn("unable to fetch block")
		return
	}

	t.FireNewBlock(block)
	for _, txid := range block.TxIDs {
		if t.TxListenerCount(txid) <= 0 {
			continue
		}
		tx, err := t.fetcher.GetTx(t.ctx, txid)
		if err != nil {
			t.logger.WithError(err).WithField("txid", txid).Warn("unable to fetch confirmed tx")
			continue
		}
		if tx != nil {
			t.FireTxConfirmation(tx)
		}
	}
}

func (t *Tracker) handleAddressTx(addr, txid string) {
	tx, err := t.fetcher.GetTx(t.ctx, txid)
	if err != nil {
		t.logger.WithError(err).WithField("txid", txid).Warn("unable to fetch address tx")
		return
	}
	if tx != nil {
		t.FireAddressTx(addr, tx)
	}
}

func (t *Tracker) send(ev interface{}) {
	select {
	case t.events <- ev:
	case <-t.quit:
		if e, ok := ev.(dialedEvent); ok && e.conn != nil {
			e.conn.Close()
		}
	}
}

func (t *Tracker) after(delay time.Duration, ev interface{}) {
	time.AfterFunc(delay, func() {
		t.send(ev)
	})
}

// fireAsync keeps listeners off the loop goroutine, they are free to call
// back into the tracker.
func (t *Tracker) fireAsync(fire func()) {
	go fire()
}

func (t *Tracker) setState(state explorer.TrackerState) {
	t.stateLock.Lock()
	prev := t.state
	t.state = state
	t.stateLock.Unlock()

	if prev != state {
		t.logger.WithField("state", state).Debug("tracker state changed")
	}
}
