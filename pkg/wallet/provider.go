package wallet

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
)

// ChangeListener is notified with the new and the previous snapshot after
// every change.
type ChangeListener func(newData, oldData entity.WalletData)

// DataPatch replaces the members of a snapshot that are not nil.
type DataPatch struct {
	Addresses []entity.WalletAddress
	Txs       map[string]entity.WalletTransaction
	Extra     map[string]json.RawMessage
}

// Option ...
type Option func(*Provider)

// WithNetwork attaches the client used to synchronize and broadcast.
func WithNetwork(client explorer.Client) Option {
	return func(p *Provider) {
		p.network = client
	}
}

// WithBatchSize sets the number of addresses synchronized per request.
func WithBatchSize(size int) Option {
	return func(p *Provider) {
		p.batchSize = size
	}
}

// WithAccountIndex sets the BIP44 account keys are derived under.
func WithAccountIndex(index uint32) Option {
	return func(p *Provider) {
		p.accountIndex = index
	}
}

// Provider owns the wallet snapshot. Every other provider of this package
// is a view over it and mutates it only through the Provider.
type Provider struct {
	coin         *coin.Coin
	batchSize    int
	accountIndex uint32

	lock      sync.RWMutex
	data      entity.WalletData
	listeners []ChangeListener
	network   explorer.Client
}

// NewProvider returns a provider owning a copy of data. A snapshot without
// coin is bound to c.
func NewProvider(c *coin.Coin, data entity.WalletData, opts ...Option) (*Provider, error) {
	if c == nil {
		return nil, ErrNullCoin
	}
	if data.Coin == "" {
		data.Coin = c.Unit
	}
	if data.Coin != c.Unit {
		return nil, fmt.Errorf("%w: %s, expected %s", ErrCoinMismatch, data.Coin, c.Unit)
	}

	data = data.Copy()
	if data.Addresses == nil {
		data.Addresses = make([]entity.WalletAddress, 0)
	}
	if data.Txs == nil {
		data.Txs = make(map[string]entity.WalletTransaction)
	}

	p := &Provider{
		coin:      c,
		batchSize: DefaultBatchSize,
		data:      data,
		listeners: make([]ChangeListener, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.batchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	return p, nil
}

// NewEmptyProvider returns a provider over an empty snapshot of coin c.
func NewEmptyProvider(c *coin.Coin, opts ...Option) (*Provider, error) {
	if c == nil {
		return nil, ErrNullCoin
	}
	return NewProvider(c, entity.NewWalletData(c.Unit), opts...)
}

func (p *Provider) Coin() *coin.Coin {
	return p.coin
}

// Data returns a copy of the current snapshot.
func (p *Provider) Data() entity.WalletData {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.data.Copy()
}

// SetData shallow merges patch into the snapshot and notifies the change
// listeners.
func (p *Provider) SetData(patch DataPatch) {
	p.update(func(wd *entity.WalletData) bool {
		if patch.Addresses != nil {
			wd.Addresses = append([]entity.WalletAddress(nil), patch.Addresses...)
		}
		if patch.Txs != nil {
			wd.Txs = make(map[string]entity.WalletTransaction, len(patch.Txs))
			for txid, tx := range patch.Txs {
				wd.Txs[txid] = tx
			}
		}
		if patch.Extra != nil {
			wd.Extra = make(map[string]json.RawMessage, len(patch.Extra))
			for k, v := range patch.Extra {
				wd.Extra[k] = v
			}
		}
		return true
	})
}

// OnChange registers a listener. Listeners run synchronously, in
// registration order, on the goroutine that changed the snapshot.
func (p *Provider) OnChange(listener ChangeListener) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.listeners = append(p.listeners, listener)
}

func (p *Provider) Address() *AddressProvider {
	return &AddressProvider{p}
}

func (p *Provider) Tx() *TransactionProvider {
	return &TransactionProvider{p}
}

// Balance is computed out of the current snapshot on every call.
func (p *Provider) Balance() (*entity.WDBalance, error) {
	return NewBalanceCalculator(p.coin).Calc(p.Data())
}

// Private returns the provider able to derive keys and sign out of seed.
func (p *Provider) Private(seed []byte) (PrivateProvider, error) {
	return NewPrivateProvider(p, seed)
}

func (p *Provider) Updater() *UpdateProvider {
	return &UpdateProvider{p, p.batchSize}
}

// SetNetwork replaces the attached network client. The previous one is not
// closed.
func (p *Provider) SetNetwork(client explorer.Client) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.network = client
}

// Network returns the attached client, ErrNoNetwork if there is none.
func (p *Provider) Network() (explorer.Client, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.network == nil {
		return nil, ErrNoNetwork
	}
	return p.network, nil
}

// Close drops the change listeners and closes the network client.
func (p *Provider) Close() error {
	p.lock.Lock()
	network := p.network
	p.network = nil
	p.listeners = make([]ChangeListener, 0)
	p.lock.Unlock()

	if network != nil {
		return network.Close()
	}
	return nil
}

// update applies fn to a copy of the snapshot. The copy replaces the
// snapshot and listeners are notified only if fn reports a change.
func (p *Provider) update(fn func(wd *entity.WalletData) bool) {
	p.lock.Lock()
	oldData := p.data
	newData := p.data.Copy()
	if !fn(&newData) {
		p.lock.Unlock()
		return
	}
	p.data = newData
	listeners := append([]ChangeListener(nil), p.listeners...)
	p.lock.Unlock()

	for _, listener := range listeners {
		listener(newData.Copy(), oldData.Copy())
	}
}
