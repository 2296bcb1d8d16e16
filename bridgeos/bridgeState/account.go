// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/bridgemint/bridgeos/origin"
)

// ModuleID names a module and determines the account it owns.
type ModuleID [8]byte

var DefaultModuleID = ModuleID([]byte("bridge/1"))

var moduleAccountPrefix = []byte("modl")

// ModuleAccount derives the account owned by a module: "modl", the id, then zero padding.
func ModuleAccount(id ModuleID) common.Address {
	var account common.Address
	copy(account[:], moduleAccountPrefix)
	copy(account[len(moduleAccountPrefix):], id[:])
	return account
}

// EnsureModule admits calls signed by the module's own account.
func EnsureModule(id ModuleID) origin.Authorizer {
	return origin.EnsureSignedBy{Account: ModuleAccount(id)}
}

func (id ModuleID) String() string {
	for _, b := range id {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(id[:])
		}
	}
	return string(id[:])
}

func (id ModuleID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText accepts either eight printable characters or 0x-prefixed hex of eight bytes.
func (id *ModuleID) UnmarshalText(text []byte) error {
	s := string(text)
	if strings.HasPrefix(s, "0x") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return fmt.Errorf("module id %q: %w", s, err)
		}
		s = string(raw)
	}
	if len(s) != len(id) {
		return fmt.Errorf("module id %q must be %d bytes", text, len(id))
	}
	copy(id[:], s)
	return nil
}
