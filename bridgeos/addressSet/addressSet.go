// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package addressSet

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/bridgemint/bridgeos/storage"
)

// AddressSet represents a set of addresses
//
//	size is stored at position 0
//	members of the set are stored sequentially from 1 onward
type AddressSet struct {
	backingStorage *storage.Storage
	size           storage.StorageBackedUint64
	byAddress      *storage.Storage
}

func Initialize(sto *storage.Storage) error {
	return sto.SetUint64ByUint64(0, 0)
}

func OpenAddressSet(sto *storage.Storage) *AddressSet {
	return &AddressSet{
		backingStorage: sto,
		size:           sto.OpenStorageBackedUint64(0),
		byAddress:      sto.OpenSubStorage([]byte{0}),
	}
}

func (aset *AddressSet) Size() (uint64, error) {
	return aset.size.Get()
}

func (aset *AddressSet) IsMember(addr common.Address) (bool, error) {
	value, err := aset.byAddress.Get(common.BytesToHash(addr.Bytes()))
	return value != (common.Hash{}), err
}

func (aset *AddressSet) AllMembers() ([]common.Address, error) {
	size, err := aset.size.Get()
	if err != nil {
		return nil, err
	}
	ret := make([]common.Address, size)
	for i := range ret {
		bytes, err := aset.backingStorage.GetByUint64(uint64(i + 1))
		if err != nil {
			return nil, err
		}
		ret[i] = common.BytesToAddress(bytes.Bytes())
	}
	return ret, nil
}

func (aset *AddressSet) Add(addr common.Address) error {
	present, err := aset.IsMember(addr)
	if present || err != nil {
		return err
	}
	size, err := aset.size.Get()
	if err != nil {
		return err
	}
	slot := storage.UintToHash(1 + size)
	addrAsHash := common.BytesToHash(addr.Bytes())
	if err := aset.byAddress.Set(addrAsHash, slot); err != nil {
		return err
	}
	if err := aset.backingStorage.Set(slot, addrAsHash); err != nil {
		return err
	}
	_, err = aset.size.Increment()
	return err
}

func (aset *AddressSet) Remove(addr common.Address) error {
	addrAsHash := common.BytesToHash(addr.Bytes())
	slotHash, err := aset.byAddress.Get(addrAsHash)
	if err != nil {
		return err
	}
	slot := slotHash.Big().Uint64()
	if slot == 0 {
		return nil
	}
	if err := aset.byAddress.Set(addrAsHash, common.Hash{}); err != nil {
		return err
	}
	size, err := aset.size.Get()
	if err != nil {
		return err
	}
	if slot < size {
		atSize, err := aset.backingStorage.GetByUint64(size)
		if err != nil {
			return err
		}
		if err := aset.backingStorage.SetByUint64(slot, atSize); err != nil {
			return err
		}
		if err := aset.byAddress.Set(atSize, storage.UintToHash(slot)); err != nil {
			return err
		}
	}
	if err := aset.backingStorage.SetByUint64(size, common.Hash{}); err != nil {
		return err
	}
	return aset.size.Set(size - 1)
}
