// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/state"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/util/testhelpers"
)

var testModuleID = ModuleID([]byte("test/001"))

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}

func testGenesis(mode Mode, quota uint64) *GenesisInfo {
	return &GenesisInfo{
		Bridge: Config{
			Mode:         mode,
			ModuleID:     testModuleID,
			InitialQuota: uint256.NewInt(quota),
		},
		MinimumBalance: uint256.NewInt(1),
	}
}

func newTestController(t *testing.T, info *GenesisInfo, sinks ...mintlog.Sink) (*Controller, *BridgeState, *state.StateDB) {
	t.Helper()
	bridge, statedb, err := NewBridgeMemoryBackedState(info)
	Require(t, err)
	controller, err := NewController(bridge, statedb, bridge.OwnerAuthorizer(), bridge.Ledger(), sinks...)
	Require(t, err)
	return controller, bridge, statedb
}

func requireAmount(t *testing.T, expected uint64, actual *uint256.Int, err error, printables ...interface{}) {
	t.Helper()
	Require(t, err, printables...)
	if !actual.Eq(uint256.NewInt(expected)) {
		Fail(t, append(printables, "expected", expected, "got", actual)...)
	}
}
