package solana

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Client wraps the Solana JSON-RPC client and maps confirmed transactions
// into flattened records.
type Client struct {
	rpcClient *rpc.Client
}

// New creates a client against the given RPC endpoint.
func New(endpoint string) *Client {
	return &Client{rpcClient: rpc.New(endpoint)}
}

// Close releases the underlying RPC connection.
func (c *Client) Close() error {
	return c.rpcClient.Close()
}

// FetchTransactions pulls up to limit confirmed transactions touching
// address and flattens them. A transaction that fails to fetch or decode is
// logged and skipped; one bad record never aborts the batch.
func (c *Client) FetchTransactions(ctx context.Context, address string, limit int) ([]models.Transaction, error) {
	pubkey, err := solana.PublicKeyFromBase58(NormalizeAddress(address))
	if err != nil {
		return nil, fmt.Errorf("solana: invalid address %q: %w", address, err)
	}

	signatures, err := c.rpcClient.GetSignaturesForAddressWithOpts(ctx, pubkey, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("solana: signature listing failed: %w", err)
	}

	records := make([]models.Transaction, 0, len(signatures))
	for _, sig := range signatures {
		record, err := c.fetchOne(ctx, sig.Signature)
		if err != nil {
			log.Printf("[Solana] skipping %s: %v", sig.Signature, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *Client) fetchOne(ctx context.Context, signature solana.Signature) (models.Transaction, error) {
	maxVersion := uint64(0)
	out, err := c.rpcClient.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("fetch failed: %w", err)
	}
	if out == nil || out.Transaction == nil || out.Meta == nil {
		return models.Transaction{}, fmt.Errorf("incomplete rpc result")
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("decode failed: %w", err)
	}

	accounts := make([]string, 0, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		accounts = append(accounts, key.String())
	}
	if len(accounts) == 0 {
		return models.Transaction{}, fmt.Errorf("no account keys")
	}

	var programs []string
	seen := make(map[string]struct{})
	for _, instruction := range tx.Message.Instructions {
		idx := int(instruction.ProgramIDIndex)
		if idx >= len(accounts) {
			continue
		}
		if _, ok := seen[accounts[idx]]; ok {
			continue
		}
		seen[accounts[idx]] = struct{}{}
		programs = append(programs, accounts[idx])
	}

	// Lamports moved out of the fee payer beyond the fee itself. Balance
	// deltas are the only version-agnostic way to see native flow.
	var lamports int64
	if len(out.Meta.PreBalances) > 0 && len(out.Meta.PostBalances) > 0 {
		lamports = int64(out.Meta.PreBalances[0]) - int64(out.Meta.PostBalances[0]) - int64(out.Meta.Fee)
		if lamports < 0 {
			lamports = 0
		}
	}

	return models.Transaction{
		Signature: signature.String(),
		Slot:      out.Slot,
		Signer:    accounts[0],
		Accounts:  accounts,
		Programs:  programs,
		Lamports:  lamports,
		Fee:       int64(out.Meta.Fee),
	}, nil
}
