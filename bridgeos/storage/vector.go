// Copyright 2025-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package storage

import "errors"

const subStorageVectorLengthOffset uint64 = 0

var ErrVectorIndexOutOfBounds = errors.New("sub-storage vector: index out of bounds")

// SubStorageVector is a storage space that contains a vector of sub-storages.
// It keeps track of the number of sub-storages and only ever grows.
type SubStorageVector struct {
	storage *Storage
	length  StorageBackedUint64
}

// OpenSubStorageVector creates a SubStorageVector in given the root storage.
func OpenSubStorageVector(sto *Storage) *SubStorageVector {
	return &SubStorageVector{
		sto,
		sto.OpenStorageBackedUint64(subStorageVectorLengthOffset),
	}
}

// Length returns the number of sub-storages.
func (v *SubStorageVector) Length() (uint64, error) {
	return v.length.Get()
}

// Push adds a new sub-storage at the end of the vector and returns it with its index.
func (v *SubStorageVector) Push() (*Storage, uint64, error) {
	length, err := v.length.Get()
	if err != nil {
		return nil, 0, err
	}
	if err := v.length.Set(length + 1); err != nil {
		return nil, 0, err
	}
	return v.at(length), length, nil
}

// At returns the substorage at the given index.
func (v *SubStorageVector) At(i uint64) (*Storage, error) {
	length, err := v.length.Get()
	if err != nil {
		return nil, err
	}
	if i >= length {
		return nil, ErrVectorIndexOutOfBounds
	}
	return v.at(i), nil
}

func (v *SubStorageVector) at(i uint64) *Storage {
	return v.storage.OpenIndexedSubStorage(i)
}
