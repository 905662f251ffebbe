package heuristics

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// SPL Token Transfer Normalizer
//
// Turns jsonParsed transactions into canonical TokenTransfer records.
// Only transfer-class instructions are considered:
//   - "transfer"         (amount only, decimals must be resolved externally)
//   - "transferChecked"  (carries an explicit tokenAmount with decimals)
//
// Decimals resolution order, first match wins:
//   1. decimals carried on the instruction itself
//   2. decimals observed in the pre/post token-balance snapshots of the
//      same transaction
//   3. the caller-supplied mint→decimals cache
//   4. the caller-supplied lookup callback (result is cached for reuse)
//
// An instruction that cannot resolve a mint or decimals is dropped, never
// turned into an error: one malformed record must not abort the batch.
// Amounts are scaled with exact decimal arithmetic; binary floating point
// would accumulate rounding error across thousands of transfers.

// MintLookupFunc resolves the decimal scale of a mint the batch has no
// snapshot metadata for. Returning false means unknown.
type MintLookupFunc func(mint string) (int, bool)

// TransferParser extracts TokenTransfer records from parsed transactions.
type TransferParser struct {
	mintDecimals map[string]int
	mintLookup   MintLookupFunc
}

// NewTransferParser creates a parser with an optional pre-seeded
// mint→decimals cache and an optional lookup callback.
func NewTransferParser(mintDecimals map[string]int, lookup MintLookupFunc) *TransferParser {
	cache := make(map[string]int, len(mintDecimals))
	for mint, dec := range mintDecimals {
		cache[mint] = dec
	}
	return &TransferParser{
		mintDecimals: cache,
		mintLookup:   lookup,
	}
}

// ExtractTransfers scans top-level and inner instruction lists, in that
// order, and returns every transfer it can fully normalize. Scan order only
// matters for fixture reproducibility; aggregation downstream is commutative.
func (p *TransferParser) ExtractTransfers(tx models.ParsedTransaction) []models.TokenTransfer {
	message := tx.Transaction.Message
	decimalsByMint, accountMint := collectTokenMetadata(tx.Meta, message.AccountKeys)

	var transfers []models.TokenTransfer
	for _, instruction := range allInstructions(message, tx.Meta) {
		if transfer, ok := p.parseInstruction(instruction, decimalsByMint, accountMint); ok {
			transfers = append(transfers, transfer)
		}
	}
	return transfers
}

// collectTokenMetadata builds the per-mint decimals table and the
// account→mint map from the balance snapshots.
func collectTokenMetadata(meta models.ParsedMeta, accountKeys []string) (map[string]int, map[string]string) {
	decimalsByMint := make(map[string]int)
	accountMint := make(map[string]string)

	snapshots := make([]models.TokenBalance, 0, len(meta.PreTokenBalances)+len(meta.PostTokenBalances))
	snapshots = append(snapshots, meta.PreTokenBalances...)
	snapshots = append(snapshots, meta.PostTokenBalances...)

	for _, balance := range snapshots {
		if balance.Mint == "" {
			continue
		}
		if balance.UITokenAmount.Decimals != nil {
			if _, seen := decimalsByMint[balance.Mint]; !seen {
				decimalsByMint[balance.Mint] = *balance.UITokenAmount.Decimals
			}
		}
		if balance.AccountIndex >= 0 && balance.AccountIndex < len(accountKeys) {
			accountMint[accountKeys[balance.AccountIndex]] = balance.Mint
		}
	}
	return decimalsByMint, accountMint
}

func allInstructions(message models.ParsedMessage, meta models.ParsedMeta) []models.ParsedInstruction {
	out := make([]models.ParsedInstruction, 0, len(message.Instructions))
	out = append(out, message.Instructions...)
	for _, inner := range meta.InnerInstructions {
		out = append(out, inner.Instructions...)
	}
	return out
}

func (p *TransferParser) parseInstruction(
	instruction models.ParsedInstruction,
	decimalsByMint map[string]int,
	accountMint map[string]string,
) (models.TokenTransfer, bool) {
	parsed := instruction.Parsed
	if parsed == nil {
		return models.TokenTransfer{}, false
	}
	if parsed.Type != "transfer" && parsed.Type != "transferChecked" {
		return models.TokenTransfer{}, false
	}

	info := parsed.Info
	source := info.Source
	if source == "" {
		source = info.Authority
	}
	destination := info.Destination
	if destination == "" {
		destination = info.Dest
	}

	var rawAmountStr string
	instrDecimals := -1 // -1 means not carried on the instruction
	switch {
	case info.TokenAmount != nil && info.TokenAmount.Amount != "":
		rawAmountStr = info.TokenAmount.Amount
		if info.TokenAmount.Decimals != nil {
			instrDecimals = *info.TokenAmount.Decimals
		}
	case info.Amount != "":
		rawAmountStr = info.Amount
	default:
		return models.TokenTransfer{}, false
	}
	rawAmount, ok := parseRawAmount(rawAmountStr)
	if !ok {
		return models.TokenTransfer{}, false
	}

	mint := info.Mint
	if mint == "" {
		mint = accountMint[source]
	}
	if mint == "" {
		mint = accountMint[destination]
	}
	if mint == "" {
		return models.TokenTransfer{}, false
	}

	decimals, ok := p.resolveDecimals(mint, instrDecimals, decimalsByMint)
	if !ok {
		return models.TokenTransfer{}, false
	}

	amount := decimal.NewFromUint64(rawAmount).Shift(int32(-decimals))
	return models.TokenTransfer{
		Mint:        mint,
		Source:      source,
		Destination: destination,
		Amount:      amount,
		RawAmount:   rawAmount,
		Decimals:    decimals,
		Program:     instruction.Program,
	}, true
}

// resolveDecimals applies the documented precedence: instruction-local,
// snapshot metadata, cache, then the lookup callback (cached on success).
func (p *TransferParser) resolveDecimals(mint string, instrDecimals int, decimalsByMint map[string]int) (int, bool) {
	if instrDecimals >= 0 {
		return instrDecimals, true
	}
	if dec, ok := decimalsByMint[mint]; ok {
		return dec, true
	}
	if dec, ok := p.mintDecimals[mint]; ok {
		return dec, true
	}
	if p.mintLookup != nil {
		if dec, ok := p.mintLookup(mint); ok {
			p.mintDecimals[mint] = dec
			return dec, true
		}
	}
	return 0, false
}

func parseRawAmount(s string) (uint64, bool) {
	raw, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return raw, true
}
