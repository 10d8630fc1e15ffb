package blockcypher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/blockcypher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawTx(hash string, height int64) map[string]interface{} {
	tx := map[string]interface{}{
		"hash":         hash,
		"block_height": height,
		"ver":          1,
		"received":     "2017-07-14T02:40:00Z",
		"inputs": []map[string]interface{}{{
			"prev_hash":    "prev",
			"output_index": 0,
			"script":       "4830",
			"output_value": 100000,
			"sequence":     4294967295,
			"addresses":    []string{"1Cud6K5gsnJ3Trc2Y2gbikbqBGmqPKTyb6"},
		}},
		"outputs": []map[string]interface{}{{
			"value":     50000000,
			"script":    "76a9",
			"addresses": []string{"138YZBjQH64shbppyHHRjHPhrBFDNxCdFZ"},
		}},
	}
	if height >= 0 {
		tx["block_hash"] = "block" + hash
		tx["confirmed"] = "2017-07-14T02:45:00Z"
	}
	return tx
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *blockcypher.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := blockcypher.NewClient(coin.MustMakeCoin(coin.BTC), explorer.AdapterOptions{
		URL:             srv.URL,
		APIKey:          "token",
		RequestInterval: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGetTx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.URL.Query().Get("token"))
		if r.URL.Path != "/txs/aaaa" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(rawTx("aaaa", 100))
	})
	ctx := context.Background()

	wtx, err := client.GetTx(ctx, "aaaa")
	require.NoError(t, err)
	tx := wtx.(*entity.LedgerTransaction)
	require.True(t, tx.IsConfirmed())
	require.Equal(t, int64(100), *tx.BlockHeight)
	require.Equal(t, "blockaaaa", tx.BlockHash)
	require.Equal(t, int64(1500000300000), *tx.BlockTime)
	require.Equal(t, int64(1500000000000), tx.ReceiveTime)
	require.True(t, decimal.RequireFromString("0.5").Equal(tx.Outputs[0].Value))
	require.Equal(t, "prev", tx.Inputs[0].PrevTxID)

	wtx, err = client.GetTx(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, wtx)
}

func TestGetAddressTxs(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/addrs/addr1/full", r.URL.Path)
		requests++

		page := map[string]interface{}{"address": "addr1"}
		if r.URL.Query().Get("before") == "" {
			page["txs"] = []interface{}{rawTx("pending", -1), rawTx("c", 30), rawTx("b", 20)}
			page["hasMore"] = true
		} else {
			assert.Equal(t, "20", r.URL.Query().Get("before"))
			page["txs"] = []interface{}{rawTx("a", 10)}
		}
		json.NewEncoder(w).Encode(page)
	})

	txs, err := client.GetAddressTxs(context.Background(), "addr1")
	require.NoError(t, err)
	require.Equal(t, 2, requests)

	txids := make([]string, 0, len(txs))
	for _, tx := range txs {
		txids = append(txids, tx.Base().TxID)
	}
	require.Equal(t, []string{"a", "b", "c", "pending"}, txids)
}

func TestGetBlock(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/hash1", r.URL.Path)
		w.Write([]byte(`{"hash":"hash1","height":7,"time":"2017-07-14T02:40:00Z","txids":["aaaa"]}`))
	})

	block, err := client.GetBlock(context.Background(), "hash1")
	require.NoError(t, err)
	require.Equal(t, &entity.Block{
		Hash:   "hash1",
		Height: 7,
		Time:   1500000000000,
		TxIDs:  []string{"aaaa"},
	}, block)
}

func TestGetTracker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.GetTracker()
	require.ErrorIs(t, err, explorer.ErrNotImplemented)
}
