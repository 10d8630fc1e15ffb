package explorer

import (
	"context"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"golang.org/x/sync/errgroup"
)

// AddressTxsFetcher fetches the history of a single address.
type AddressTxsFetcher func(ctx context.Context, address string) ([]entity.WalletTransaction, error)

// FetchBulk fetches the history of every address in parallel and merges the
// results with MergeTxs, in address order. It fails as soon as any fetch
// fails.
func FetchBulk(
	ctx context.Context, addresses []string, fetch AddressTxsFetcher,
) ([]entity.WalletTransaction, error) {
	chunks := make([][]entity.WalletTransaction, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addresses {
		i, addr := i, addr
		g.Go(func() error {
			txs, err := fetch(gctx, addr)
			if err != nil {
				return fmt.Errorf("address %s: %w", addr, err)
			}
			chunks[i] = txs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return MergeTxs(chunks...), nil
}

// MergeTxs concatenates the given lists keeping one record per txid, at the
// position the txid was first seen. A record seen again is overwritten field
// by field with the non zero fields of the later one.
func MergeTxs(chunks ...[]entity.WalletTransaction) []entity.WalletTransaction {
	index := make(map[string]int)
	list := make([]entity.WalletTransaction, 0)

	for _, txs := range chunks {
		for _, tx := range txs {
			if tx == nil {
				continue
			}
			txid := tx.Base().TxID
			if i, ok := index[txid]; ok {
				list[i] = entity.MergeTransaction(list[i], tx)
				continue
			}
			index[txid] = len(list)
			list = append(list, tx)
		}
	}
	return list
}
