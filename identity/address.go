// Package identity provides the opaque handle type the reserve core uses to
// refer to its external collaborators (aTokens, debt tokens, rate
// strategies) without depending on how those collaborators are addressed on
// whatever ledger hosts them.
package identity

import (
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Prefix distinguishes the human-readable namespace an Address belongs to,
// e.g. an aToken handle versus a debt-token handle.
type Prefix string

const (
	// ReservePrefix labels the reserve's own aToken/underlying handles.
	ReservePrefix Prefix = "rsv"
	// StrategyPrefix labels interest-rate-strategy handles.
	StrategyPrefix Prefix = "rts"
)

// Address is an opaque 20-byte collaborator handle. It carries no signing
// capability; the core only ever compares, stores, and logs it.
type Address struct {
	prefix Prefix
	bytes  []byte
}

// New constructs an Address from a 20-byte handle and a namespace prefix.
func New(prefix Prefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("identity: address must be 20 bytes, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// Generate derives a fresh Address by hashing random entropy through the
// same keccak construction the teacher's key-to-address derivation uses,
// giving deterministic-length, collision-resistant handles for tests and
// simulations without requiring a real keypair.
func Generate(prefix Prefix) (Address, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return Address{}, fmt.Errorf("identity: generate: %w", err)
	}
	digest := ethcrypto.Keccak256(seed)
	return New(prefix, digest[len(digest)-20:])
}

// IsZero reports whether the address has no bytes set, the sentinel for
// "collaborator not configured".
func (a Address) IsZero() bool {
	if len(a.bytes) == 0 {
		return true
	}
	for _, b := range a.bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes returns the raw 20-byte handle.
func (a Address) Bytes() []byte { return a.bytes }

// Prefix returns the namespace prefix associated with the address.
func (a Address) Prefix() Prefix { return a.prefix }

// String renders the address in bech32, safe to place in log lines and
// metric label values.
func (a Address) String() string {
	if len(a.bytes) == 0 {
		return ""
	}
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		return fmt.Sprintf("invalid(%x)", a.bytes)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		return fmt.Sprintf("invalid(%x)", a.bytes)
	}
	return encoded
}

// Decode parses a bech32-encoded address string produced by String.
func Decode(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("identity: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("identity: error converting bits: %w", err)
	}
	return New(Prefix(prefix), conv)
}

// Equal reports whether two addresses carry the same bytes, ignoring prefix.
func (a Address) Equal(other Address) bool {
	if len(a.bytes) != len(other.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}
