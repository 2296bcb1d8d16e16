// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("caller not authorized to mint")
	ErrInsufficientQuota  = errors.New("insufficient mint quota")
	ErrInvalidAmount      = errors.New("invalid mint amount")
	ErrPotDestination     = errors.New("cannot mint into the bridge pot")
	ErrUninitialized      = errors.New("bridge state uninitialized")
	ErrAlreadyInitialized = errors.New("bridge state is already initialized")
)

// LedgerError is returned when the ledger refuses a credit or transfer on behalf of a mint.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger rejected mint: %v", e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// GenesisConfigurationError reports genesis parameters the bridge cannot start from.
type GenesisConfigurationError struct {
	Reason string
	Err    error
}

func (e *GenesisConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid bridge genesis: %s: %v", e.Reason, e.Err)
	}
	return "invalid bridge genesis: " + e.Reason
}

func (e *GenesisConfigurationError) Unwrap() error {
	return e.Err
}
