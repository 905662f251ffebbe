package heuristics

import (
	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Balance Aggregator
//
// Folds a transfer set into per-address flow statistics. All totals use
// exact decimal arithmetic, so re-running aggregation over the same
// transfers is bit-identical — the determinism every downstream ratio and
// similarity comparison depends on.

// BalanceAggregate accumulates one address's flow within one scope (a single
// mint, or all mints combined). Mutated only while aggregation runs; treated
// as frozen afterwards.
type BalanceAggregate struct {
	Sent     decimal.Decimal     `json:"sent"`
	Received decimal.Decimal     `json:"received"`
	Peers    map[string]struct{} `json:"-"`
}

// NewBalanceAggregate returns a zeroed accumulator.
func NewBalanceAggregate() *BalanceAggregate {
	return &BalanceAggregate{
		Sent:     decimal.Zero,
		Received: decimal.Zero,
		Peers:    make(map[string]struct{}),
	}
}

// UniqueCounterparties is the count of distinct peer addresses.
func (b *BalanceAggregate) UniqueCounterparties() int { return len(b.Peers) }

// Volume is sent + received.
func (b *BalanceAggregate) Volume() decimal.Decimal { return b.Sent.Add(b.Received) }

func (b *BalanceAggregate) fold(transfer models.TokenTransfer, asSender bool) {
	if asSender {
		b.Sent = b.Sent.Add(transfer.Amount)
		b.Peers[transfer.Destination] = struct{}{}
		return
	}
	b.Received = b.Received.Add(transfer.Amount)
	b.Peers[transfer.Source] = struct{}{}
}

// AggregateBalancesByMint buckets transfers per mint and aggregates each
// bucket independently. An address appearing only as a destination still
// gets an entry with Sent = 0.
func AggregateBalancesByMint(transfers []models.TokenTransfer) map[string]map[string]*BalanceAggregate {
	buckets := make(map[string]map[string]*BalanceAggregate)
	for _, transfer := range transfers {
		mintBucket, ok := buckets[transfer.Mint]
		if !ok {
			mintBucket = make(map[string]*BalanceAggregate)
			buckets[transfer.Mint] = mintBucket
		}
		foldTransfer(mintBucket, transfer)
	}
	return buckets
}

// AggregateBalances aggregates across all mints into a single per-address
// view. Mixing assets is deliberate here: the cross-asset view feeds the
// flow-similarity clusterer, which compares volume shape, not asset value.
func AggregateBalances(transfers []models.TokenTransfer) map[string]*BalanceAggregate {
	aggregates := make(map[string]*BalanceAggregate)
	for _, transfer := range transfers {
		foldTransfer(aggregates, transfer)
	}
	return aggregates
}

func foldTransfer(bucket map[string]*BalanceAggregate, transfer models.TokenTransfer) {
	sender, ok := bucket[transfer.Source]
	if !ok {
		sender = NewBalanceAggregate()
		bucket[transfer.Source] = sender
	}
	sender.fold(transfer, true)

	receiver, ok := bucket[transfer.Destination]
	if !ok {
		receiver = NewBalanceAggregate()
		bucket[transfer.Destination] = receiver
	}
	receiver.fold(transfer, false)
}
