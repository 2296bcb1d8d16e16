// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

// Package mintlog holds the audit trail of accepted mints: an append-only log kept
// in bridge storage, and sinks that forward each event to observers.
package mintlog

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/storage"
)

// MintEvent records one accepted mint. Index is its position in acceptance order.
type MintEvent struct {
	Index   uint64
	Account common.Address
	Amount  *uint256.Int
}

func (ev MintEvent) String() string {
	return fmt.Sprintf("Minted#%d(%v, %v)", ev.Index, ev.Account, ev.Amount)
}

// Sink observes accepted mints. Emit runs inside the mint, so an error aborts it.
type Sink interface {
	Emit(ev MintEvent) error
}

type SinkFunc func(ev MintEvent) error

func (f SinkFunc) Emit(ev MintEvent) error {
	return f(ev)
}

const (
	accountOffset uint64 = iota
	amountOffset
)

// Log is the storage-backed, append-only record of mint events.
type Log struct {
	entries *storage.SubStorageVector
}

func Open(sto *storage.Storage) *Log {
	return &Log{storage.OpenSubStorageVector(sto)}
}

func (l *Log) Append(account common.Address, amount *uint256.Int) (MintEvent, error) {
	entry, index, err := l.entries.Push()
	if err != nil {
		return MintEvent{}, err
	}
	if err := entry.SetByUint64(accountOffset, common.BytesToHash(account.Bytes())); err != nil {
		return MintEvent{}, err
	}
	if err := entry.SetByUint64(amountOffset, common.Hash(amount.Bytes32())); err != nil {
		return MintEvent{}, err
	}
	return MintEvent{Index: index, Account: account, Amount: amount.Clone()}, nil
}

func (l *Log) Length() (uint64, error) {
	return l.entries.Length()
}

func (l *Log) At(index uint64) (MintEvent, error) {
	entry, err := l.entries.At(index)
	if err != nil {
		return MintEvent{}, err
	}
	account, err := entry.GetByUint64(accountOffset)
	if err != nil {
		return MintEvent{}, err
	}
	amount, err := entry.GetByUint64(amountOffset)
	if err != nil {
		return MintEvent{}, err
	}
	return MintEvent{
		Index:   index,
		Account: common.BytesToAddress(account.Bytes()),
		Amount:  new(uint256.Int).SetBytes32(amount[:]),
	}, nil
}

// Range returns up to limit events starting at from. A limit of 0 means no limit.
func (l *Log) Range(from, limit uint64) ([]MintEvent, error) {
	length, err := l.Length()
	if err != nil {
		return nil, err
	}
	if from >= length {
		return nil, nil
	}
	to := length
	if limit != 0 && to-from > limit {
		to = from + limit
	}
	events := make([]MintEvent, 0, to-from)
	for i := from; i < to; i++ {
		ev, err := l.At(i)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

var MintedEventTopic = crypto.Keccak256Hash([]byte("Minted(address,uint256)"))

var ErrNotMintLog = errors.New("not a Minted log")

// LogAdder is satisfied by *state.StateDB.
type LogAdder interface {
	AddLog(log *types.Log)
}

// ReceiptSink emits each mint as an EVM-style log so that receipt indexers see it.
type ReceiptSink struct {
	db      LogAdder
	emitter common.Address
}

func NewReceiptSink(db LogAdder, emitter common.Address) *ReceiptSink {
	return &ReceiptSink{db: db, emitter: emitter}
}

func (s *ReceiptSink) Emit(ev MintEvent) error {
	amount := ev.Amount.Bytes32()
	s.db.AddLog(&types.Log{
		Address: s.emitter,
		Topics:  []common.Hash{MintedEventTopic, common.BytesToHash(ev.Account.Bytes())},
		Data:    amount[:],
	})
	return nil
}

// ParseReceiptLog decodes a log written by ReceiptSink. The returned event has no index.
func ParseReceiptLog(log *types.Log) (MintEvent, error) {
	if len(log.Topics) != 2 || log.Topics[0] != MintedEventTopic || len(log.Data) != common.HashLength {
		return MintEvent{}, ErrNotMintLog
	}
	return MintEvent{
		Account: common.BytesToAddress(log.Topics[1].Bytes()),
		Amount:  new(uint256.Int).SetBytes32(log.Data),
	}, nil
}
