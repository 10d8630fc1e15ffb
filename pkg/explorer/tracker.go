package explorer

import (
	"sync"

	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/google/uuid"
)

// TrackerState is the connection state of a tracker.
type TrackerState int

const (
	Disconnected TrackerState = iota
	Connecting
	Connected
	Reconnecting
	Closed
)

func (s TrackerState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

type (
	ConnectHandler         func()
	ConnectionErrorHandler func(err error)
	BlockHandler           func(block *entity.Block)
	TxHandler              func(tx entity.WalletTransaction)
)

// TrackerClient delivers push updates of a backend. Every On* method returns
// a subscription id for Unsubscribe.
type TrackerClient interface {
	State() TrackerState
	OnConnect(handler ConnectHandler) string
	OnConnectionError(handler ConnectionErrorHandler) string
	OnBlock(handler BlockHandler) string
	// OnTxConfirmation fires once the block including txid is announced.
	OnTxConfirmation(txid string, handler TxHandler) string
	// OnAddressTx fires for every new transaction paying one of the tracked
	// addresses.
	OnAddressTx(addresses []string, handler TxHandler) string
	Unsubscribe(id string)
	IsAddressTracked(address string) bool
	// Close tears the connection down for good. It is safe to call more than
	// once.
	Close() error
}

type listenerKind int

const (
	connectListener listenerKind = iota
	connErrorListener
	blockListener
	txListener
	addressListener
)

type listener struct {
	kind      listenerKind
	txid      string
	addresses []string
	handler   interface{}
}

// TrackerBase is the listener registry embedded by tracker implementations.
// Handlers are invoked outside the registry lock.
type TrackerBase struct {
	lock      sync.RWMutex
	listeners map[string]*listener
	order     []string
	txIndex   map[string]map[string]struct{}
	addrIndex map[string]map[string]struct{}
}

// NewTrackerBase ...
func NewTrackerBase() *TrackerBase {
	return &TrackerBase{
		listeners: make(map[string]*listener),
		order:     make([]string, 0),
		txIndex:   make(map[string]map[string]struct{}),
		addrIndex: make(map[string]map[string]struct{}),
	}
}

func (t *TrackerBase) OnConnect(handler ConnectHandler) string {
	return t.add(&listener{kind: connectListener, handler: handler})
}

func (t *TrackerBase) OnConnectionError(handler ConnectionErrorHandler) string {
	return t.add(&listener{kind: connErrorListener, handler: handler})
}

func (t *TrackerBase) OnBlock(handler BlockHandler) string {
	return t.add(&listener{kind: blockListener, handler: handler})
}

func (t *TrackerBase) OnTxConfirmation(txid string, handler TxHandler) string {
	return t.add(&listener{kind: txListener, txid: txid, handler: handler})
}

func (t *TrackerBase) OnAddressTx(addresses []string, handler TxHandler) string {
	addrs := append([]string(nil), addresses...)
	return t.add(&listener{kind: addressListener, addresses: addrs, handler: handler})
}

// Unsubscribe removes the listener, unknown ids are ignored.
func (t *TrackerBase) Unsubscribe(id string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	l, ok := t.listeners[id]
	if !ok {
		return
	}
	delete(t.listeners, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}

	switch l.kind {
	case txListener:
		unindex(t.txIndex, l.txid, id)
	case addressListener:
		for _, addr := range l.addresses {
			unindex(t.addrIndex, addr, id)
		}
	}
}

func (t *TrackerBase) IsAddressTracked(address string) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.addrIndex[address]) > 0
}

// TrackedAddresses ...
func (t *TrackerBase) TrackedAddresses() []string {
	t.lock.RLock()
	defer t.lock.RUnlock()

	addrs := make([]string, 0, len(t.addrIndex))
	for addr := range t.addrIndex {
		addrs = append(addrs, addr)
	}
	return addrs
}

// TxListenerCount returns the number of listeners waiting for txid.
func (t *TrackerBase) TxListenerCount(txid string) int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.txIndex[txid])
}

// ClearListeners drops every listener.
func (t *TrackerBase) ClearListeners() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.listeners = make(map[string]*listener)
	t.order = make([]string, 0)
	t.txIndex = make(map[string]map[string]struct{})
	t.addrIndex = make(map[string]map[string]struct{})
}

func (t *TrackerBase) FireConnect() {
	for _, l := range t.snapshot(connectListener, nil) {
		l.handler.(ConnectHandler)()
	}
}

func (t *TrackerBase) FireConnectionError(err error) {
	for _, l := range t.snapshot(connErrorListener, nil) {
		l.handler.(ConnectionErrorHandler)(err)
	}
}

func (t *TrackerBase) FireNewBlock(block *entity.Block) {
	for _, l := range t.snapshot(blockListener, nil) {
		l.handler.(BlockHandler)(block)
	}
}

// FireTxConfirmation delivers tx to the listeners of its txid.
func (t *TrackerBase) FireTxConfirmation(tx entity.WalletTransaction) {
	txid := tx.Base().TxID
	match := func(l *listener) bool { return l.txid == txid }
	for _, l := range t.snapshot(txListener, match) {
		l.handler.(TxHandler)(tx)
	}
}

// FireAddressTx delivers tx to the listeners tracking address.
func (t *TrackerBase) FireAddressTx(address string, tx entity.WalletTransaction) {
	match := func(l *listener) bool {
		for _, addr := range l.addresses {
			if addr == address {
				return true
			}
		}
		return false
	}
	for _, l := range t.snapshot(addressListener, match) {
		l.handler.(TxHandler)(tx)
	}
}

func (t *TrackerBase) add(l *listener) string {
	id := uuid.New().String()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.listeners[id] = l
	t.order = append(t.order, id)
	switch l.kind {
	case txListener:
		index(t.txIndex, l.txid, id)
	case addressListener:
		for _, addr := range l.addresses {
			index(t.addrIndex, addr, id)
		}
	}
	return id
}

func (t *TrackerBase) snapshot(kind listenerKind, match func(*listener) bool) []*listener {
	t.lock.RLock()
	defer t.lock.RUnlock()

	list := make([]*listener, 0)
	for _, id := range t.order {
		l := t.listeners[id]
		if l.kind != kind {
			continue
		}
		if match != nil && !match(l) {
			continue
		}
		list = append(list, l)
	}
	return list
}

func index(m map[string]map[string]struct{}, key, id string) {
	if _, ok := m[key]; !ok {
		m[key] = make(map[string]struct{})
	}
	m[key][id] = struct{}{}
}

func unindex(m map[string]map[string]struct{}, key, id string) {
	ids, ok := m[key]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(m, key)
	}
}
