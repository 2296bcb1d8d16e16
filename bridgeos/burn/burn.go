// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package burn

import (
	"github.com/ethereum/go-ethereum/core/vm"
	glog "github.com/ethereum/go-ethereum/log"
)

// Burner meters storage access performed on behalf of a bridge operation.
type Burner interface {
	Burn(amount uint64) error
	Burned() uint64
	Restrict(err error)
	ReadOnly() bool
}

// SystemBurner accounts for gas without ever running out. It is used for genesis
// and for host-driven calls that are not charged to a caller.
type SystemBurner struct {
	gasBurnt uint64
	readOnly bool
}

func NewSystemBurner(readOnly bool) *SystemBurner {
	return &SystemBurner{
		readOnly: readOnly,
	}
}

func (burner *SystemBurner) Burn(amount uint64) error {
	burner.gasBurnt += amount
	return nil
}

func (burner *SystemBurner) Burned() uint64 {
	return burner.gasBurnt
}

func (burner *SystemBurner) Restrict(err error) {
	if err != nil {
		glog.Error("Restrict() received an error", "err", err)
	}
}

func (burner *SystemBurner) ReadOnly() bool {
	return burner.readOnly
}

// GasBurner charges against a fixed budget and fails with vm.ErrOutOfGas once the
// budget is exhausted. A burn that overruns the budget consumes what is left.
type GasBurner struct {
	gasLeft  uint64
	gasBurnt uint64
}

func NewGasBurner(budget uint64) *GasBurner {
	return &GasBurner{gasLeft: budget}
}

func (burner *GasBurner) Burn(amount uint64) error {
	if amount > burner.gasLeft {
		burner.gasBurnt += burner.gasLeft
		burner.gasLeft = 0
		return vm.ErrOutOfGas
	}
	burner.gasLeft -= amount
	burner.gasBurnt += amount
	return nil
}

func (burner *GasBurner) Burned() uint64 {
	return burner.gasBurnt
}

func (burner *GasBurner) GasLeft() uint64 {
	return burner.gasLeft
}

// Restrict is a no-op: the error is already surfaced to the metered caller.
func (burner *GasBurner) Restrict(err error) {}

func (burner *GasBurner) ReadOnly() bool {
	return false
}
