// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

// Package ledger keeps account balances and total issuance in the host's
// key-value state. It stands in for the host runtime's currency module: the bridge
// only ever reaches it through the Ledger and TransferLedger interfaces.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/addressSet"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
)

var (
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrIssuanceOverflow    = errors.New("total issuance overflow")
	ErrExistentialDeposit  = errors.New("value below existential deposit")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrKeepAlive           = errors.New("transfer would reap the source account")
)

// Ledger is the part of the host currency the bridge credits into.
type Ledger interface {
	Credit(account common.Address, amount *uint256.Int) error
	BalanceOf(account common.Address) (*uint256.Int, error)
	TotalIssuance() (*uint256.Int, error)
}

// TransferLedger additionally moves existing funds between accounts.
type TransferLedger interface {
	Ledger
	Transfer(from, to common.Address, amount *uint256.Int, keepAlive bool) error
	MinimumBalance() (*uint256.Int, error)
}

// StateLedger is a storage-backed TransferLedger.
// Every operation validates completely before its first write.
type StateLedger struct {
	totalIssuance  storage.StorageBackedUint256
	minimumBalance storage.StorageBackedUint256
	balances       *storage.Storage
	accounts       *addressSet.AddressSet
}

const (
	totalIssuanceOffset uint64 = iota
	minimumBalanceOffset
)

var (
	balancesSubspace = []byte{0}
	accountsSubspace = []byte{1}
)

func Initialize(sto *storage.Storage, minimumBalance *uint256.Int) error {
	if err := sto.SetByUint64(totalIssuanceOffset, common.Hash{}); err != nil {
		return err
	}
	if err := sto.SetByUint64(minimumBalanceOffset, common.Hash(minimumBalance.Bytes32())); err != nil {
		return err
	}
	return addressSet.Initialize(sto.OpenSubStorage(accountsSubspace))
}

func Open(sto *storage.Storage) *StateLedger {
	return &StateLedger{
		totalIssuance:  sto.OpenStorageBackedUint256(totalIssuanceOffset),
		minimumBalance: sto.OpenStorageBackedUint256(minimumBalanceOffset),
		balances:       sto.OpenSubStorage(balancesSubspace),
		accounts:       addressSet.OpenAddressSet(sto.OpenSubStorage(accountsSubspace)),
	}
}

func (l *StateLedger) BalanceOf(account common.Address) (*uint256.Int, error) {
	raw, err := l.balances.Get(common.BytesToHash(account.Bytes()))
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(raw[:]), nil
}

func (l *StateLedger) TotalIssuance() (*uint256.Int, error) {
	return l.totalIssuance.Get()
}

func (l *StateLedger) MinimumBalance() (*uint256.Int, error) {
	return l.minimumBalance.Get()
}

// Accounts lists every account currently holding a non-zero balance.
func (l *StateLedger) Accounts() ([]common.Address, error) {
	return l.accounts.AllMembers()
}

// Credit issues amount into account, increasing total issuance.
func (l *StateLedger) Credit(account common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	balance, err := l.BalanceOf(account)
	if err != nil {
		return err
	}
	issuance, err := l.totalIssuance.Get()
	if err != nil {
		return err
	}
	newBalance, err := l.receive(account, balance, amount)
	if err != nil {
		return err
	}
	newIssuance, overflow := new(uint256.Int).AddOverflow(issuance, amount)
	if overflow {
		return fmt.Errorf("%w: issuance %v plus %v", ErrIssuanceOverflow, issuance, amount)
	}
	if err := l.setBalance(account, balance, newBalance); err != nil {
		return err
	}
	return l.totalIssuance.Set(newIssuance)
}

// Transfer moves amount from one account to another without changing total issuance,
// except for dust reaped from the source when keepAlive is false.
func (l *StateLedger) Transfer(from, to common.Address, amount *uint256.Int, keepAlive bool) error {
	if amount.IsZero() {
		return nil
	}
	fromBalance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %v holds %v, needs %v", ErrInsufficientBalance, from, fromBalance, amount)
	}
	minimum, err := l.minimumBalance.Get()
	if err != nil {
		return err
	}
	remainder := new(uint256.Int).Sub(fromBalance, amount)
	dust := new(uint256.Int)
	if remainder.Lt(minimum) {
		if keepAlive {
			return fmt.Errorf("%w: %v would keep %v, minimum is %v", ErrKeepAlive, from, remainder, minimum)
		}
		dust, remainder = remainder, new(uint256.Int)
	}
	if from == to {
		return nil
	}
	toBalance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	newToBalance, err := l.receive(to, toBalance, amount)
	if err != nil {
		return err
	}
	if err := l.setBalance(from, fromBalance, remainder); err != nil {
		return err
	}
	if err := l.setBalance(to, toBalance, newToBalance); err != nil {
		return err
	}
	if dust.IsZero() {
		return nil
	}
	issuance, err := l.totalIssuance.Get()
	if err != nil {
		return err
	}
	return l.totalIssuance.Set(issuance.Sub(issuance, dust))
}

// receive checks that account may be credited amount on top of balance.
func (l *StateLedger) receive(account common.Address, balance, amount *uint256.Int) (*uint256.Int, error) {
	newBalance, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return nil, fmt.Errorf("%w: %v holds %v, credit %v", ErrBalanceOverflow, account, balance, amount)
	}
	if balance.IsZero() {
		minimum, err := l.minimumBalance.Get()
		if err != nil {
			return nil, err
		}
		if amount.Lt(minimum) {
			return nil, fmt.Errorf("%w: %v to new account %v, minimum is %v", ErrExistentialDeposit, amount, account, minimum)
		}
	}
	return newBalance, nil
}

func (l *StateLedger) setBalance(account common.Address, old, balance *uint256.Int) error {
	if err := l.balances.Set(common.BytesToHash(account.Bytes()), common.Hash(balance.Bytes32())); err != nil {
		return err
	}
	switch {
	case old.IsZero() && !balance.IsZero():
		return l.accounts.Add(account)
	case !old.IsZero() && balance.IsZero():
		return l.accounts.Remove(account)
	}
	return nil
}
