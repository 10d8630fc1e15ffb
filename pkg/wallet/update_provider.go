package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	log "github.com/sirupsen/logrus"
)

// UpdateProvider synchronizes the wallet transactions with the network.
type UpdateProvider struct {
	p         *Provider
	batchSize int
}

// Update fetches the transactions of every wallet address, batchSize
// addresses per request. Batches are requested one after the other.
func (up *UpdateProvider) Update(ctx context.Context) error {
	network, err := up.p.Network()
	if err != nil {
		return err
	}

	addresses := up.p.Address().Strings()
	for start := 0; start < len(addresses); start += up.batchSize {
		end := start + up.batchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		batch := addresses[start:end]

		txs, err := network.GetBulkAddrsTxs(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to sync addresses %d-%d: %w", start, end-1, err)
		}
		if _, err := up.p.Tx().AddAll(txs); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"coin":      up.p.coin.Unit,
			"addresses": len(batch),
			"txs":       len(txs),
		}).Debug("synced address batch")
	}
	return nil
}

// Tracking holds the tracker subscriptions of a wallet.
type Tracking struct {
	p       *Provider
	tracker explorer.TrackerClient

	lock    sync.Mutex
	ids     []string
	// waiting maps the pending txids to their confirmation subscription.
	waiting map[string]string
	stopped bool
}

// StartTracking subscribes to the transactions paying the wallet addresses
// and to the confirmation of the pending ones. Pushed transactions are
// stored as they come. Subscriptions are dropped once ctx is done or Stop is
// called.
func (up *UpdateProvider) StartTracking(ctx context.Context) (*Tracking, error) {
	network, err := up.p.Network()
	if err != nil {
		return nil, err
	}
	tracker, err := network.GetTracker()
	if err != nil {
		return nil, err
	}

	t := &Tracking{
		p:       up.p,
		tracker: tracker,
		ids:     make([]string, 0),
		waiting: make(map[string]string),
	}

	addresses := up.p.Address().Strings()
	if len(addresses) > 0 {
		t.subscribe(tracker.OnAddressTx(addresses, t.onTx))
	}
	for _, txid := range up.p.Tx().Unconfirmed() {
		t.waitConfirmation(txid)
	}

	go func() {
		<-ctx.Done()
		t.Stop()
	}()
	return t, nil
}

// Track adds addresses derived after tracking started.
func (t *Tracking) Track(addresses ...string) {
	if len(addresses) == 0 {
		return
	}
	t.subscribe(t.tracker.OnAddressTx(addresses, t.onTx))
}

// Stop drops every subscription, it is safe to call more than once.
func (t *Tracking) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	for _, id := range t.ids {
		t.tracker.Unsubscribe(id)
	}
	t.ids = nil
}

func (t *Tracking) onTx(tx entity.WalletTransaction) {
	stored, err := t.p.Tx().Add(tx)
	if err != nil {
		log.WithError(err).WithField("txid", tx.Base().TxID).Warn(
			"unable to store pushed transaction",
		)
		return
	}
	txid := stored.Base().TxID
	if !stored.Base().IsConfirmed() {
		t.waitConfirmation(txid)
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	if id, ok := t.waiting[txid]; ok && id != "" {
		t.tracker.Unsubscribe(id)
		delete(t.waiting, txid)
	}
}

func (t *Tracking) waitConfirmation(txid string) {
	t.lock.Lock()
	if _, ok := t.waiting[txid]; ok || t.stopped {
		t.lock.Unlock()
		return
	}
	t.waiting[txid] = ""
	t.lock.Unlock()

	id := t.tracker.OnTxConfirmation(txid, t.onTx)
	t.subscribe(id)

	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.waiting[txid]; ok {
		t.waiting[txid] = id
	}
}

func (t *Tracking) subscribe(id string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.stopped {
		t.tracker.Unsubscribe(id)
		return
	}
	t.ids = append(t.ids, id)
}
