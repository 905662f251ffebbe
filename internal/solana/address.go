// Package solana is the on-chain collaborator layer: it fetches confirmed
// transactions over RPC and flattens them into the record shape the core
// analyzes. All fetching happens before a pipeline run; the core itself
// never blocks on I/O.
package solana

import "strings"

const (
	minAddressLen = 32
	maxAddressLen = 44
)

// Base58 alphabet used by Solana addresses (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// IsValidAddress reports whether address is plausibly a base58-encoded
// Solana public key.
func IsValidAddress(address string) bool {
	if len(address) < minAddressLen || len(address) > maxAddressLen {
		return false
	}
	for _, ch := range address {
		if !strings.ContainsRune(base58Alphabet, ch) {
			return false
		}
	}
	return true
}

// NormalizeAddress trims surrounding whitespace from a user-supplied
// address.
func NormalizeAddress(address string) string {
	return strings.TrimSpace(address)
}
