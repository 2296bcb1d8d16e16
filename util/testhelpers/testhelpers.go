// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package testhelpers

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	red   = "\033[31;1m"
	clear = "\033[0;0m"
)

// Fail a test should an error occur
func RequireImpl(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(red, printables, err, clear)
	}
}

func FailImpl(t *testing.T, printables ...interface{}) {
	t.Helper()
	t.Fatal(red, printables, clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

func RandomAddress() common.Address {
	var address common.Address
	RandomizeSlice(address[:])
	return address
}

// Computes a psuedo-random uint64 on the interval [min, max]
func RandomUint64(min, max uint64) uint64 {
	return rand.Uint64()%(max-min+1) + min
}

// RandomAmount returns a pseudo-random amount on the interval [0, limit)
func RandomAmount(limit uint64) *uint256.Int {
	if limit == 0 {
		return new(uint256.Int)
	}
	return uint256.NewInt(rand.Uint64() % limit)
}

func RandomBool() bool {
	return rand.Int31n(2) == 0
}
