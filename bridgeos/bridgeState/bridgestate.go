// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/addressSet"
	"github.com/offchainlabs/bridgemint/bridgeos/burn"
	"github.com/offchainlabs/bridgemint/bridgeos/ledger"
	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/bridgeos/origin"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
)

// BridgeState contains the bridge's persistent state. It is backed by the bridge's storage in the stateDB,
// so every modification is written through and the StateDB always holds the definitive state.
type BridgeState struct {
	version        uint64 // version of the bridge storage format
	mode           Mode
	moduleID       ModuleID
	quota          storage.StorageBackedUint256 // remaining mintable amount, issuance mode only
	initialQuota   storage.StorageBackedUint256
	minted         storage.StorageBackedUint256 // running total of accepted mints
	ledger         *ledger.StateLedger
	events         *mintlog.Log
	owners         *addressSet.AddressSet
	backingStorage *storage.Storage
	Burner         burn.Burner
}

type BridgeStateOffset uint64

const (
	versionOffset BridgeStateOffset = iota
	modeOffset
	moduleIDOffset
	quotaOffset
	initialQuotaOffset
	mintedOffset
)

type BridgeStateSubspaceID []byte

var (
	ledgerSubspace BridgeStateSubspaceID = []byte{0}
	eventsSubspace BridgeStateSubspaceID = []byte{1}
	ownersSubspace BridgeStateSubspaceID = []byte{2}
)

const currentVersion uint64 = 1

func OpenBridgeState(stateDB storage.StateDB, burner burn.Burner) (*BridgeState, error) {
	backingStorage := storage.NewGeth(stateDB, burner)
	version, err := backingStorage.GetUint64ByUint64(uint64(versionOffset))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, ErrUninitialized
	}
	return openBridgeState(backingStorage, version, burner)
}

func openBridgeState(backingStorage *storage.Storage, version uint64, burner burn.Burner) (*BridgeState, error) {
	mode, err := backingStorage.GetUint64ByUint64(uint64(modeOffset))
	if err != nil {
		return nil, err
	}
	rawID, err := backingStorage.GetByUint64(uint64(moduleIDOffset))
	if err != nil {
		return nil, err
	}
	var moduleID ModuleID
	copy(moduleID[:], rawID[common.HashLength-len(moduleID):])
	return &BridgeState{
		version:        version,
		mode:           Mode(mode),
		moduleID:       moduleID,
		quota:          backingStorage.OpenStorageBackedUint256(uint64(quotaOffset)),
		initialQuota:   backingStorage.OpenStorageBackedUint256(uint64(initialQuotaOffset)),
		minted:         backingStorage.OpenStorageBackedUint256(uint64(mintedOffset)),
		ledger:         ledger.Open(backingStorage.OpenSubStorage(ledgerSubspace)),
		events:         mintlog.Open(backingStorage.OpenSubStorage(eventsSubspace)),
		owners:         addressSet.OpenAddressSet(backingStorage.OpenSubStorage(ownersSubspace)),
		backingStorage: backingStorage,
		Burner:         burner,
	}, nil
}

func OpenSystemBridgeState(stateDB storage.StateDB, readOnly bool) (*BridgeState, error) {
	burner := burn.NewSystemBurner(readOnly)
	bridge, err := OpenBridgeState(stateDB, burner)
	burner.Restrict(err)
	return bridge, err
}

// BridgeVersion reads the storage version without opening the rest of the state. Zero means uninitialized.
func BridgeVersion(stateDB storage.StateDB) (uint64, error) {
	backingStorage := storage.NewGeth(stateDB, burn.NewSystemBurner(true))
	return backingStorage.GetUint64ByUint64(uint64(versionOffset))
}

// NewBridgeMemoryBackedState creates and initializes a memory-backed bridge state (for testing only)
func NewBridgeMemoryBackedState(info *GenesisInfo) (*BridgeState, *state.StateDB, error) {
	statedb := storage.NewMemoryBackedStateDB()
	bridge, _, err := Initialize(statedb, burn.NewSystemBurner(false), info)
	if err != nil {
		return nil, nil, err
	}
	return bridge, statedb, nil
}

func (state *BridgeState) Version() uint64 {
	return state.version
}

func (state *BridgeState) Mode() Mode {
	return state.mode
}

func (state *BridgeState) ModuleID() ModuleID {
	return state.moduleID
}

func (state *BridgeState) ModuleAccount() common.Address {
	return ModuleAccount(state.moduleID)
}

// Quota returns the remaining mintable amount. In pool mode this is the module account's balance.
func (state *BridgeState) Quota() (*uint256.Int, error) {
	if state.mode == ModePool {
		return state.ledger.BalanceOf(state.ModuleAccount())
	}
	return state.quota.Get()
}

func (state *BridgeState) InitialQuota() (*uint256.Int, error) {
	return state.initialQuota.Get()
}

func (state *BridgeState) Minted() (*uint256.Int, error) {
	return state.minted.Get()
}

func (state *BridgeState) Ledger() *ledger.StateLedger {
	return state.ledger
}

func (state *BridgeState) Events() *mintlog.Log {
	return state.events
}

func (state *BridgeState) ChainOwners() *addressSet.AddressSet {
	return state.owners
}

// OwnerAuthorizer admits the root origin and any chain owner.
func (state *BridgeState) OwnerAuthorizer() origin.Authorizer {
	return origin.EnsureAny{origin.EnsureRoot{}, origin.EnsureMember{Set: state.owners}}
}

func (state *BridgeState) BackingStorage() *storage.Storage {
	return state.backingStorage
}
