// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import "fmt"

// Mode selects where minted funds come from. It is fixed at genesis.
type Mode uint64

const (
	// ModeIssuance keeps an abstract quota and credits new funds, raising total issuance.
	ModeIssuance Mode = iota
	// ModePool pays mints out of the module account's balance, leaving total issuance unchanged.
	ModePool
)

func (m Mode) String() string {
	switch m {
	case ModeIssuance:
		return "issuance"
	case ModePool:
		return "pool"
	default:
		return fmt.Sprintf("Mode(%d)", uint64(m))
	}
}

func (m Mode) Valid() bool {
	return m == ModeIssuance || m == ModePool
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown bridge mode %d", uint64(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "issuance", "":
		*m = ModeIssuance
	case "pool":
		*m = ModePool
	default:
		return fmt.Errorf("unknown bridge mode %q", text)
	}
	return nil
}
