// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/addressSet"
	"github.com/offchainlabs/bridgemint/bridgeos/burn"
	"github.com/offchainlabs/bridgemint/bridgeos/ledger"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
)

// Config holds the bridge parameters fixed at genesis.
type Config struct {
	Mode         Mode
	ModuleID     ModuleID
	InitialQuota *uint256.Int
	MinimumQuota *uint256.Int // optional lower bound on InitialQuota
}

type Endowment struct {
	Account common.Address
	Amount  *uint256.Int
}

type GenesisInfo struct {
	Bridge         Config
	MinimumBalance *uint256.Int // the ledger's existential deposit
	Balances       []Endowment
	Owners         []common.Address
}

// GenesisStateDB is the host state genesis writes into. *state.StateDB satisfies it.
type GenesisStateDB interface {
	storage.StateDB
	IntermediateRoot(deleteEmptyObjects bool) common.Hash
}

// Initialize builds the bridge's genesis state and returns it with the resulting state root.
func Initialize(statedb GenesisStateDB, burner burn.Burner, info *GenesisInfo) (*BridgeState, common.Hash, error) {
	bridge, err := InitializeBridgeState(statedb, burner, info)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return bridge, statedb.IntermediateRoot(true), nil
}

// InitializeBridgeState writes genesis. The version slot is written last, so a failed genesis
// never leaves a state OpenBridgeState accepts. When stateDB can snapshot, a failure also
// reverts every write made so far.
func InitializeBridgeState(stateDB storage.StateDB, burner burn.Burner, info *GenesisInfo) (*BridgeState, error) {
	sto := storage.NewGeth(stateDB, burner)
	version, err := sto.GetUint64ByUint64(uint64(versionOffset))
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, ErrAlreadyInitialized
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	journal, canRevert := stateDB.(Journal)
	snapshot := 0
	if canRevert {
		snapshot = journal.Snapshot()
	}
	bridge, err := writeGenesis(sto, burner, info)
	if err != nil {
		if canRevert {
			journal.RevertToSnapshot(snapshot)
		}
		return nil, err
	}
	log.Info("initialized bridge state", "mode", info.Bridge.Mode, "module", info.Bridge.ModuleID, "account", bridge.ModuleAccount(), "quota", info.Bridge.InitialQuota)
	return bridge, nil
}

func writeGenesis(sto *storage.Storage, burner burn.Burner, info *GenesisInfo) (*BridgeState, error) {
	minimumBalance := new(uint256.Int)
	if info.MinimumBalance != nil {
		minimumBalance.Set(info.MinimumBalance)
	}
	cfg := info.Bridge

	if err := sto.SetUint64ByUint64(uint64(modeOffset), uint64(cfg.Mode)); err != nil {
		return nil, err
	}
	if err := sto.SetByUint64(uint64(moduleIDOffset), common.BytesToHash(cfg.ModuleID[:])); err != nil {
		return nil, err
	}
	initialQuota := sto.OpenStorageBackedUint256(uint64(initialQuotaOffset))
	if err := initialQuota.Set(cfg.InitialQuota); err != nil {
		return nil, err
	}
	if err := ledger.Initialize(sto.OpenSubStorage(ledgerSubspace), minimumBalance); err != nil {
		return nil, err
	}
	if err := addressSet.Initialize(sto.OpenSubStorage(ownersSubspace)); err != nil {
		return nil, err
	}

	bridge, err := openBridgeState(sto, currentVersion, burner)
	if err != nil {
		return nil, err
	}
	for _, endowment := range info.Balances {
		if err := bridge.ledger.Credit(endowment.Account, endowment.Amount); err != nil {
			return nil, &GenesisConfigurationError{Reason: "endowment of " + endowment.Account.Hex(), Err: err}
		}
	}
	switch cfg.Mode {
	case ModeIssuance:
		err = bridge.quota.Set(cfg.InitialQuota)
	case ModePool:
		err = bridge.ledger.Credit(bridge.ModuleAccount(), cfg.InitialQuota)
		if err != nil {
			err = &GenesisConfigurationError{Reason: "bridge pot", Err: err}
		}
	}
	if err != nil {
		return nil, err
	}
	for _, owner := range info.Owners {
		if err := bridge.owners.Add(owner); err != nil {
			return nil, err
		}
	}
	if err := sto.SetUint64ByUint64(uint64(versionOffset), currentVersion); err != nil {
		return nil, err
	}
	return bridge, nil
}

// Validate checks everything genesis can reject before anything is written.
func (info *GenesisInfo) Validate() error {
	cfg := info.Bridge
	if !cfg.Mode.Valid() {
		return &GenesisConfigurationError{Reason: "unknown mode " + cfg.Mode.String()}
	}
	if cfg.InitialQuota == nil {
		return &GenesisConfigurationError{Reason: "initial quota not set"}
	}
	if cfg.MinimumQuota != nil && cfg.InitialQuota.Lt(cfg.MinimumQuota) {
		return &GenesisConfigurationError{Reason: "initial quota " + cfg.InitialQuota.Dec() + " is below the minimum " + cfg.MinimumQuota.Dec()}
	}
	minimumBalance := new(uint256.Int)
	if info.MinimumBalance != nil {
		minimumBalance = info.MinimumBalance
	}
	if cfg.Mode == ModePool && cfg.InitialQuota.Lt(minimumBalance) {
		return &GenesisConfigurationError{Reason: "the bridge pot must hold at least the existential deposit " + minimumBalance.Dec()}
	}
	endowed := make(map[common.Address]bool)
	for _, endowment := range info.Balances {
		if endowment.Amount == nil {
			return &GenesisConfigurationError{Reason: "endowment of " + endowment.Account.Hex() + " has no amount"}
		}
		if cfg.Mode == ModePool && endowment.Account == ModuleAccount(cfg.ModuleID) {
			return &GenesisConfigurationError{Reason: "the bridge pot cannot be endowed separately"}
		}
		if endowment.Amount.IsZero() {
			continue
		}
		// only the first credit creates the account
		if !endowed[endowment.Account] && endowment.Amount.Lt(minimumBalance) {
			return &GenesisConfigurationError{Reason: "endowment of " + endowment.Account.Hex() + " is below the existential deposit " + minimumBalance.Dec()}
		}
		endowed[endowment.Account] = true
	}
	return nil
}
