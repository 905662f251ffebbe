package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

// Transaction is a flattened, already-fetched Solana transaction record.
// The fetcher layer produces these; the core never goes back to the chain.
type Transaction struct {
	Signature string   `json:"signature"`
	Slot      uint64   `json:"slot"`
	Signer    string   `json:"signer"`
	Accounts  []string `json:"accounts"`
	Programs  []string `json:"programs"`
	Lamports  int64    `json:"lamports"` // Lamports moved by the transaction
	Fee       int64    `json:"fee"`      // Fee paid by the signer, in lamports
}

// InvolvedAddresses returns the signer plus every account touched by the
// transaction, as a set.
func (t Transaction) InvolvedAddresses() map[string]struct{} {
	involved := make(map[string]struct{}, len(t.Accounts)+1)
	for _, addr := range t.Accounts {
		involved[addr] = struct{}{}
	}
	involved[t.Signer] = struct{}{}
	return involved
}

// Touches reports whether addr appears as the signer or among the accounts.
func (t Transaction) Touches(addr string) bool {
	if addr == t.Signer {
		return true
	}
	for _, a := range t.Accounts {
		if a == addr {
			return true
		}
	}
	return false
}

// Hash returns a stable SHA3-256 digest over the canonical transaction
// fields, usable as a dedup key across ingestion paths.
func (t Transaction) Hash() string {
	d := sha3.New256()
	d.Write([]byte(t.Signature))
	fmt.Fprintf(d, "%d", t.Slot)
	d.Write([]byte(t.Signer))
	for i, a := range t.Accounts {
		if i > 0 {
			d.Write([]byte(";"))
		}
		d.Write([]byte(a))
	}
	d.Write([]byte("|"))
	for i, p := range t.Programs {
		if i > 0 {
			d.Write([]byte(";"))
		}
		d.Write([]byte(p))
	}
	fmt.Fprintf(d, "%d%d", t.Lamports, t.Fee)
	return fmt.Sprintf("%x", d.Sum(nil))
}

// ParsedTransaction is the jsonParsed shape returned by getTransaction:
// a message with instruction lists plus token-balance snapshots in the meta.
type ParsedTransaction struct {
	Transaction ParsedTransactionBody `json:"transaction"`
	Meta        ParsedMeta            `json:"meta"`
}

type ParsedTransactionBody struct {
	Message ParsedMessage `json:"message"`
}

type ParsedMessage struct {
	AccountKeys  []string            `json:"accountKeys"`
	Instructions []ParsedInstruction `json:"instructions"`
}

type ParsedMeta struct {
	PreTokenBalances  []TokenBalance         `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance         `json:"postTokenBalances"`
	InnerInstructions []InnerInstructionList `json:"innerInstructions"`
}

type InnerInstructionList struct {
	Index        int                 `json:"index"`
	Instructions []ParsedInstruction `json:"instructions"`
}

// ParsedInstruction carries the decoded instruction payload. Parsed is nil
// for instructions the RPC node could not decode.
type ParsedInstruction struct {
	Program string             `json:"program"`
	Parsed  *InstructionDetail `json:"parsed,omitempty"`
}

type InstructionDetail struct {
	Type string          `json:"type"`
	Info InstructionInfo `json:"info"`
}

// InstructionInfo is the union of the fields the SPL token program emits for
// transfer and transferChecked instructions.
type InstructionInfo struct {
	Source      string       `json:"source,omitempty"`
	Destination string       `json:"destination,omitempty"`
	Dest        string       `json:"dest,omitempty"`
	Authority   string       `json:"authority,omitempty"`
	Mint        string       `json:"mint,omitempty"`
	Amount      string       `json:"amount,omitempty"`
	TokenAmount *TokenAmount `json:"tokenAmount,omitempty"`
}

// TokenAmount mirrors the uiTokenAmount envelope. Decimals is a pointer so
// an absent field is distinguishable from zero.
type TokenAmount struct {
	Amount   string `json:"amount"`
	Decimals *int   `json:"decimals,omitempty"`
}

// TokenBalance is one entry of pre/postTokenBalances.
type TokenBalance struct {
	AccountIndex  int         `json:"accountIndex"`
	Mint          string      `json:"mint"`
	UITokenAmount TokenAmount `json:"uiTokenAmount"`
}

// TokenTransfer is one normalized SPL token movement. Created once by the
// normalizer and never mutated afterwards.
type TokenTransfer struct {
	Mint        string          `json:"mint"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`    // RawAmount scaled by 10^Decimals
	RawAmount   uint64          `json:"rawAmount"` // Pre-scaling integer amount
	Decimals    int             `json:"decimals"`
	Program     string          `json:"program"` // Originating instruction family
}

// SortedAddressSet flattens a set of addresses into a sorted slice. Every
// externally visible address list goes through this so output ordering is
// reproducible.
func SortedAddressSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
