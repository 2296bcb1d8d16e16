// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/burn"
)

// Storage allows the bridge to store data persistently in the host's key-value state. This is represented in
// the stateDB as the storage of a fictional account at address 0xB41D6E0000000000000000000000000000000001.
//
// The storage is logically a tree of storage spaces which can be nested hierarchically, with each storage space
// containing a key-value store with 256-bit keys and values. Uninitialized storage spaces and uninitialized keys
// within initialized storage spaces are deemed to be filled with zeroes.
//
// A storage space (represented by a Storage object) has a byte-slice storageKey which distinguishes it from other
// storage spaces. The root Storage has its storageKey as the empty string. A parent storage space can contain children,
// each with a distinct name. The storageKey of a child is keccak256(parent.storageKey, name).
//
// The contents of all storage spaces are stored in a single, flat key-value store. The contents of key, within a
// storage space with storageKey, are stored at location keccak256(storageKey, key) in the flat KVS.
//
// Every read and write is charged to the Storage's burner.
type Storage struct {
	account    common.Address
	db         StateDB
	storageKey []byte
	burner     burn.Burner
}

// StateDB is the slice of the host state the bridge needs. *state.StateDB satisfies it.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)
}

const (
	StorageReadCost      = params.SloadGasEIP2200
	StorageWriteCost     = params.SstoreSetGasEIP2200
	StorageWriteZeroCost = params.SstoreResetGasEIP2200
)

var BridgeStateAddress = common.HexToAddress("0xB41D6E0000000000000000000000000000000001")

// NewGeth uses a Geth database to create an evm key-value store
func NewGeth(statedb StateDB, burner burn.Burner) *Storage {
	account := BridgeStateAddress
	if statedb.GetNonce(account) == 0 && !burner.ReadOnly() {
		statedb.SetNonce(account, 1) // setting the nonce ensures Geth won't treat the bridge as empty
	}
	return &Storage{
		account:    account,
		db:         statedb,
		storageKey: []byte{},
		burner:     burner,
	}
}

// NewMemoryBacked uses Geth's memory-backed database to create an evm key-value store
func NewMemoryBacked(burner burn.Burner) *Storage {
	return NewGeth(NewMemoryBackedStateDB(), burner)
}

// NewMemoryBackedStateDB uses Geth's memory-backed database to create a statedb
func NewMemoryBackedStateDB() *state.StateDB {
	raw := rawdb.NewMemoryDatabase()
	db := state.NewDatabase(raw)
	statedb, err := state.New(types.EmptyRootHash, db, nil)
	if err != nil {
		panic("failed to init empty statedb: " + err.Error())
	}
	return statedb
}

// We map addresses using "pages" of 256 storage slots. We hash over the page number but not the offset within
// a page, to preserve contiguity within a page.
func mapAddress(storageKey []byte, key common.Hash) common.Hash {
	keyBytes := key.Bytes()
	boundary := common.HashLength - 1
	return common.BytesToHash(
		append(
			crypto.Keccak256(storageKey, keyBytes[:boundary])[:boundary],
			keyBytes[boundary],
		),
	)
}

func UintToHash(val uint64) common.Hash {
	var hash common.Hash
	binary.BigEndian.PutUint64(hash[common.HashLength-8:], val)
	return hash
}

func (store *Storage) Get(key common.Hash) (common.Hash, error) {
	err := store.burner.Burn(StorageReadCost)
	if err != nil {
		return common.Hash{}, err
	}
	return store.db.GetState(store.account, mapAddress(store.storageKey, key)), nil
}

func (store *Storage) GetUint64(key common.Hash) (uint64, error) {
	value, err := store.Get(key)
	return value.Big().Uint64(), err
}

func (store *Storage) GetByUint64(key uint64) (common.Hash, error) {
	return store.Get(UintToHash(key))
}

func (store *Storage) GetUint64ByUint64(key uint64) (uint64, error) {
	return store.GetUint64(UintToHash(key))
}

func (store *Storage) Set(key common.Hash, value common.Hash) error {
	if store.burner.ReadOnly() {
		return vm.ErrWriteProtection
	}
	cost := StorageWriteCost
	if value == (common.Hash{}) {
		cost = StorageWriteZeroCost
	}
	if err := store.burner.Burn(cost); err != nil {
		return err
	}
	store.db.SetState(store.account, mapAddress(store.storageKey, key), value)
	return nil
}

func (store *Storage) SetByUint64(key uint64, value common.Hash) error {
	return store.Set(UintToHash(key), value)
}

func (store *Storage) SetUint64ByUint64(key uint64, value uint64) error {
	return store.Set(UintToHash(key), UintToHash(value))
}

func (store *Storage) OpenSubStorage(id []byte) *Storage {
	return &Storage{
		store.account,
		store.db,
		crypto.Keccak256(store.storageKey, id),
		store.burner,
	}
}

// OpenIndexedSubStorage opens the child space named by the big-endian encoding of index
func (store *Storage) OpenIndexedSubStorage(index uint64) *Storage {
	return store.OpenSubStorage(binary.BigEndian.AppendUint64(nil, index))
}

type StorageSlot struct {
	account common.Address
	db      StateDB
	slot    common.Hash
	burner  burn.Burner
}

func (store *Storage) NewSlot(offset uint64) StorageSlot {
	return StorageSlot{store.account, store.db, mapAddress(store.storageKey, UintToHash(offset)), store.burner}
}

func (ss *StorageSlot) Get() (common.Hash, error) {
	err := ss.burner.Burn(StorageReadCost)
	if err != nil {
		return common.Hash{}, err
	}
	return ss.db.GetState(ss.account, ss.slot), nil
}

func (ss *StorageSlot) Set(value common.Hash) error {
	if ss.burner.ReadOnly() {
		return vm.ErrWriteProtection
	}
	cost := StorageWriteCost
	if value == (common.Hash{}) {
		cost = StorageWriteZeroCost
	}
	if err := ss.burner.Burn(cost); err != nil {
		return err
	}
	ss.db.SetState(ss.account, ss.slot, value)
	return nil
}

type StorageBackedUint64 struct {
	StorageSlot
}

func (store *Storage) OpenStorageBackedUint64(offset uint64) StorageBackedUint64 {
	return StorageBackedUint64{store.NewSlot(offset)}
}

func (sbu *StorageBackedUint64) Get() (uint64, error) {
	raw, err := sbu.StorageSlot.Get()
	value := raw.Big()
	if !value.IsUint64() {
		panic("expected uint64 compatible value in storage")
	}
	return value.Uint64(), err
}

func (sbu *StorageBackedUint64) Set(value uint64) error {
	return sbu.StorageSlot.Set(UintToHash(value))
}

func (sbu *StorageBackedUint64) Increment() (uint64, error) {
	old, err := sbu.Get()
	if err != nil {
		return 0, err
	}
	if old+1 < old {
		panic("Overflow in StorageBackedUint64::Increment")
	}
	return old + 1, sbu.Set(old + 1)
}

// StorageBackedUint256 holds a full-width unsigned amount. Values are stored big-endian.
type StorageBackedUint256 struct {
	StorageSlot
}

func (store *Storage) OpenStorageBackedUint256(offset uint64) StorageBackedUint256 {
	return StorageBackedUint256{store.NewSlot(offset)}
}

func (sbu *StorageBackedUint256) Get() (*uint256.Int, error) {
	raw, err := sbu.StorageSlot.Get()
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(raw[:]), nil
}

func (sbu *StorageBackedUint256) Set(value *uint256.Int) error {
	return sbu.StorageSlot.Set(common.Hash(value.Bytes32()))
}
