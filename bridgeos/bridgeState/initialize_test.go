// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/burn"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
	"github.com/offchainlabs/bridgemint/util/testhelpers"
)

func TestOpenUninitialized(t *testing.T) {
	statedb := storage.NewMemoryBackedStateDB()
	if _, err := OpenSystemBridgeState(statedb, false); !errors.Is(err, ErrUninitialized) {
		Fail(t, "expected ErrUninitialized, got", err)
	}
	version, err := BridgeVersion(statedb)
	Require(t, err)
	if version != 0 {
		Fail(t, "fresh state has version", version)
	}
}

func TestInitializeTwice(t *testing.T) {
	_, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 10))
	Require(t, err)
	_, err = InitializeBridgeState(statedb, burn.NewSystemBurner(false), testGenesis(ModeIssuance, 20))
	if !errors.Is(err, ErrAlreadyInitialized) {
		Fail(t, "expected ErrAlreadyInitialized, got", err)
	}
	bridge, err := OpenSystemBridgeState(statedb, true)
	Require(t, err)
	quota, err := bridge.Quota()
	requireAmount(t, 10, quota, err)
}

func TestGenesisRoundTrip(t *testing.T) {
	alice, bob, owner := testhelpers.RandomAddress(), testhelpers.RandomAddress(), testhelpers.RandomAddress()
	info := testGenesis(ModePool, 5_000)
	info.Balances = []Endowment{
		{Account: alice, Amount: uint256.NewInt(300)},
		{Account: bob, Amount: uint256.NewInt(700)},
	}
	info.Owners = []common.Address{owner}

	statedb := storage.NewMemoryBackedStateDB()
	_, root, err := Initialize(statedb, burn.NewSystemBurner(false), info)
	Require(t, err)
	if root == (common.Hash{}) {
		Fail(t, "empty genesis root")
	}

	bridge, err := OpenSystemBridgeState(statedb, true)
	Require(t, err)
	if bridge.Version() != currentVersion || bridge.Mode() != ModePool || bridge.ModuleID() != testModuleID {
		Fail(t, "unexpected header", bridge.Version(), bridge.Mode(), bridge.ModuleID())
	}
	quota, err := bridge.Quota()
	requireAmount(t, 5_000, quota, err, "pot")
	initial, err := bridge.InitialQuota()
	requireAmount(t, 5_000, initial, err, "initial quota")
	issuance, err := bridge.Ledger().TotalIssuance()
	requireAmount(t, 6_000, issuance, err, "issuance")
	balance, err := bridge.Ledger().BalanceOf(bob)
	requireAmount(t, 700, balance, err, "bob")
	isOwner, err := bridge.ChainOwners().IsMember(owner)
	Require(t, err)
	if !isOwner {
		Fail(t, "owner not recorded")
	}
	accounts, err := bridge.Ledger().Accounts()
	Require(t, err)
	if len(accounts) != 3 {
		Fail(t, "expected alice, bob and the pot, got", accounts)
	}
}

func TestGenesisValidation(t *testing.T) {
	tests := []struct {
		name string
		info func() *GenesisInfo
	}{
		{"pool below existential deposit", func() *GenesisInfo {
			info := testGenesis(ModePool, 0)
			return info
		}},
		{"quota below minimum", func() *GenesisInfo {
			info := testGenesis(ModeIssuance, 10)
			info.Bridge.MinimumQuota = uint256.NewInt(11)
			return info
		}},
		{"missing quota", func() *GenesisInfo {
			info := testGenesis(ModeIssuance, 0)
			info.Bridge.InitialQuota = nil
			return info
		}},
		{"unknown mode", func() *GenesisInfo {
			return testGenesis(Mode(7), 10)
		}},
		{"endowment below existential deposit", func() *GenesisInfo {
			info := testGenesis(ModeIssuance, 10)
			info.MinimumBalance = uint256.NewInt(100)
			info.Balances = []Endowment{{Account: common.Address{9}, Amount: uint256.NewInt(99)}}
			return info
		}},
		{"new account endowed below existential deposit after a zero credit", func() *GenesisInfo {
			info := testGenesis(ModeIssuance, 10)
			info.MinimumBalance = uint256.NewInt(100)
			info.Balances = []Endowment{
				{Account: common.Address{9}, Amount: new(uint256.Int)},
				{Account: common.Address{9}, Amount: uint256.NewInt(5)},
			}
			return info
		}},
		{"endowed pot", func() *GenesisInfo {
			info := testGenesis(ModePool, 10)
			info.Balances = []Endowment{{Account: ModuleAccount(testModuleID), Amount: uint256.NewInt(5)}}
			return info
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := NewBridgeMemoryBackedState(test.info())
			var genesisErr *GenesisConfigurationError
			if !errors.As(err, &genesisErr) {
				Fail(t, "expected a genesis configuration error, got", err)
			}
		})
	}

	// an issuance bridge may start empty
	_, _, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 0))
	Require(t, err)
}

func TestTopUpEndowmentMayBeSmall(t *testing.T) {
	info := testGenesis(ModeIssuance, 10)
	info.MinimumBalance = uint256.NewInt(100)
	account := common.Address{9}
	info.Balances = []Endowment{
		{Account: account, Amount: uint256.NewInt(100)},
		{Account: account, Amount: uint256.NewInt(5)},
	}
	bridge, _, err := NewBridgeMemoryBackedState(info)
	Require(t, err)
	balance, err := bridge.Ledger().BalanceOf(account)
	requireAmount(t, 105, balance, err)
}

func TestFailedGenesisLeavesNoState(t *testing.T) {
	all := new(uint256.Int).SetAllOne()
	info := testGenesis(ModeIssuance, 10)
	info.Balances = []Endowment{
		{Account: common.Address{1}, Amount: all},
		{Account: common.Address{2}, Amount: uint256.NewInt(1)},
	}

	statedb := storage.NewMemoryBackedStateDB()
	storage.NewGeth(statedb, burn.NewSystemBurner(false)) // marks the storage account
	pristine := statedb.IntermediateRoot(true)
	_, _, err := Initialize(statedb, burn.NewSystemBurner(false), info)
	var genesisErr *GenesisConfigurationError
	if !errors.As(err, &genesisErr) {
		Fail(t, "expected a genesis configuration error, got", err)
	}
	version, err := BridgeVersion(statedb)
	Require(t, err)
	if version != 0 {
		Fail(t, "failed genesis wrote version", version)
	}
	if _, err := OpenSystemBridgeState(statedb, true); !errors.Is(err, ErrUninitialized) {
		Fail(t, "expected ErrUninitialized after a failed genesis, got", err)
	}
	if root := statedb.IntermediateRoot(true); root != pristine {
		Fail(t, "failed genesis left writes behind", root, pristine)
	}

	_, _, err = Initialize(statedb, burn.NewSystemBurner(false), testGenesis(ModeIssuance, 10))
	Require(t, err, "retry after a failed genesis")
	bridge, err := OpenSystemBridgeState(statedb, true)
	Require(t, err)
	quota, err := bridge.Quota()
	requireAmount(t, 10, quota, err)
	issuance, err := bridge.Ledger().TotalIssuance()
	requireAmount(t, 0, issuance, err)
}
