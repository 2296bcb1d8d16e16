// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/bridgemint/bridgeos/burn"
	"github.com/offchainlabs/bridgemint/bridgeos/ledger"
	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/bridgeos/origin"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
	"github.com/offchainlabs/bridgemint/util/testhelpers"
)

func TestMintWithinQuota(t *testing.T) {
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, 1_000_000))
	alice := testhelpers.RandomAddress()

	Require(t, controller.Mint(origin.Root(), alice, uint256.NewInt(400)))
	balance, err := controller.BalanceOf(alice)
	requireAmount(t, 400, balance, err, "balance")
	quota, err := controller.Quota()
	requireAmount(t, 999_600, quota, err, "quota")
	issuance, err := controller.TotalIssuance()
	requireAmount(t, 400, issuance, err, "issuance")
	minted, err := controller.Minted()
	requireAmount(t, 400, minted, err, "minted")

	err = controller.Mint(origin.Root(), alice, uint256.NewInt(1_000_000))
	if !errors.Is(err, ErrInsufficientQuota) {
		Fail(t, "expected ErrInsufficientQuota, got", err)
	}
	balance, err = controller.BalanceOf(alice)
	requireAmount(t, 400, balance, err, "balance after rejected mint")
	quota, err = controller.Quota()
	requireAmount(t, 999_600, quota, err, "quota after rejected mint")
	count, err := controller.EventCount()
	Require(t, err)
	if count != 1 {
		Fail(t, "rejected mint appended an event, count", count)
	}
}

func TestUnauthorizedMint(t *testing.T) {
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, 100))
	alice := testhelpers.RandomAddress()

	for _, caller := range []origin.Origin{origin.Signed(testhelpers.RandomAddress()), origin.None()} {
		err := controller.Mint(caller, alice, uint256.NewInt(10))
		if !errors.Is(err, ErrUnauthorized) || !errors.Is(err, origin.ErrBadOrigin) {
			Fail(t, "expected ErrUnauthorized for", caller, "got", err)
		}
	}
	quota, err := controller.Quota()
	requireAmount(t, 100, quota, err, "quota")
	balance, err := controller.BalanceOf(alice)
	requireAmount(t, 0, balance, err, "balance")
	count, err := controller.EventCount()
	Require(t, err)
	if count != 0 {
		Fail(t, "unauthorized mint appended an event")
	}
}

func TestZeroQuota(t *testing.T) {
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, 0))
	alice := testhelpers.RandomAddress()

	if err := controller.Mint(origin.Root(), alice, uint256.NewInt(1)); !errors.Is(err, ErrInsufficientQuota) {
		Fail(t, "expected ErrInsufficientQuota, got", err)
	}
	Require(t, controller.Mint(origin.Root(), alice, new(uint256.Int)))
	balance, err := controller.BalanceOf(alice)
	requireAmount(t, 0, balance, err, "balance")
	events, err := controller.Events(0, 0)
	Require(t, err)
	if len(events) != 1 || events[0].Account != alice || !events[0].Amount.IsZero() {
		Fail(t, "expected one zero-amount event, got", events)
	}
}

func TestNilAmountRejected(t *testing.T) {
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, 10))
	if err := controller.Mint(origin.Root(), common.Address{1}, nil); !errors.Is(err, ErrInvalidAmount) {
		Fail(t, "expected ErrInvalidAmount, got", err)
	}
}

func TestChainOwnerCanMint(t *testing.T) {
	owner := testhelpers.RandomAddress()
	info := testGenesis(ModeIssuance, 100)
	info.Owners = []common.Address{owner}
	controller, _, _ := newTestController(t, info)

	Require(t, controller.Mint(origin.Signed(owner), owner, uint256.NewInt(30)))
	quota, err := controller.Quota()
	requireAmount(t, 70, quota, err)
}

func TestPoolModeMatchesPalletBehaviour(t *testing.T) {
	controller, bridge, _ := newTestController(t, testGenesis(ModePool, 1_000_000))
	pot := bridge.ModuleAccount()
	recipient := common.BigToAddress(common.Big2)

	issuance, err := controller.TotalIssuance()
	requireAmount(t, 1_000_000, issuance, err, "issuance at genesis")

	Require(t, controller.Mint(origin.Root(), recipient, uint256.NewInt(400)))
	balance, err := controller.BalanceOf(recipient)
	requireAmount(t, 400, balance, err, "recipient")
	issuance, err = controller.TotalIssuance()
	requireAmount(t, 1_000_000, issuance, err, "issuance after mint")

	err = controller.Mint(origin.Root(), recipient, uint256.NewInt(1_000_000))
	if !errors.Is(err, ErrInsufficientQuota) {
		Fail(t, "expected ErrInsufficientQuota, got", err)
	}
	potBalance, err := controller.BalanceOf(pot)
	requireAmount(t, 999_600, potBalance, err, "pot")
	quota, err := controller.Quota()
	requireAmount(t, 999_600, quota, err, "quota")

	// the pot must stay alive
	if err := controller.Mint(origin.Root(), recipient, uint256.NewInt(999_600)); !errors.Is(err, ErrInsufficientQuota) {
		Fail(t, "expected keep-alive rejection, got", err)
	}
	Require(t, controller.Mint(origin.Root(), recipient, uint256.NewInt(999_599)))
	quota, err = controller.Quota()
	requireAmount(t, 1, quota, err, "quota after draining")
	minted, err := controller.Minted()
	requireAmount(t, 999_999, minted, err, "minted")
}

func TestExistentialDepositFailureLeavesNoTrace(t *testing.T) {
	info := testGenesis(ModeIssuance, 1_000)
	info.MinimumBalance = uint256.NewInt(10)
	controller, _, statedb := newTestController(t, info)
	rootBefore := statedb.IntermediateRoot(true)

	err := controller.Mint(origin.Root(), testhelpers.RandomAddress(), uint256.NewInt(5))
	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	require.ErrorIs(t, err, ledger.ErrExistentialDeposit)
	require.Equal(t, rootBefore, statedb.IntermediateRoot(true))

	quota, err := controller.Quota()
	requireAmount(t, 1_000, quota, err)
}

// partialLedger credits the account and then fails, leaving writes for the controller to undo.
type partialLedger struct {
	*ledger.StateLedger
}

var errInjected = errors.New("injected ledger failure")

func (l partialLedger) Credit(account common.Address, amount *uint256.Int) error {
	if err := l.StateLedger.Credit(account, amount); err != nil {
		return err
	}
	return errInjected
}

func TestLedgerFailureRevertsQuota(t *testing.T) {
	bridge, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 500))
	require.NoError(t, err)
	controller, err := NewController(bridge, statedb, bridge.OwnerAuthorizer(), partialLedger{bridge.Ledger()})
	require.NoError(t, err)
	alice := testhelpers.RandomAddress()
	rootBefore := statedb.IntermediateRoot(true)

	err = controller.Mint(origin.Root(), alice, uint256.NewInt(200))
	require.ErrorIs(t, err, errInjected)
	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	require.Equal(t, rootBefore, statedb.IntermediateRoot(true))

	quota, err := controller.Quota()
	requireAmount(t, 500, quota, err)
	balance, err := controller.BalanceOf(alice)
	requireAmount(t, 0, balance, err)
	issuance, err := controller.TotalIssuance()
	requireAmount(t, 0, issuance, err)
}

func TestSinkFailureRevertsMint(t *testing.T) {
	bridge, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 500))
	require.NoError(t, err)
	errSink := errors.New("sink down")
	failing := mintlog.SinkFunc(func(mintlog.MintEvent) error { return errSink })
	receipts := mintlog.NewReceiptSink(statedb, storage.BridgeStateAddress)
	controller, err := NewController(bridge, statedb, bridge.OwnerAuthorizer(), bridge.Ledger(), receipts, failing)
	require.NoError(t, err)

	err = controller.Mint(origin.Root(), testhelpers.RandomAddress(), uint256.NewInt(50))
	require.ErrorIs(t, err, errSink)
	require.Empty(t, statedb.Logs())
	count, err := controller.EventCount()
	require.NoError(t, err)
	require.Zero(t, count)
	quota, err := controller.Quota()
	requireAmount(t, 500, quota, err)
}

func TestReceiptSinkEmitsMintLogs(t *testing.T) {
	bridge, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 500))
	require.NoError(t, err)
	receipts := mintlog.NewReceiptSink(statedb, storage.BridgeStateAddress)
	controller, err := NewController(bridge, statedb, bridge.OwnerAuthorizer(), bridge.Ledger(), receipts)
	require.NoError(t, err)
	alice := testhelpers.RandomAddress()

	require.NoError(t, controller.Mint(origin.Root(), alice, uint256.NewInt(123)))
	logs := statedb.Logs()
	require.Len(t, logs, 1)
	event, err := mintlog.ParseReceiptLog(logs[0])
	require.NoError(t, err)
	require.Equal(t, alice, event.Account)
	require.True(t, event.Amount.Eq(uint256.NewInt(123)))
}

func TestOutOfGasMidMintLeavesNoTrace(t *testing.T) {
	_, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 1_000))
	require.NoError(t, err)
	alice := testhelpers.RandomAddress()
	rootBefore := statedb.IntermediateRoot(true)

	failures := 0
	for budget := uint64(0); ; budget += 1_000 {
		require.Less(t, budget, uint64(1_000_000), "mint never fit in the budget")
		bridge, err := OpenBridgeState(statedb, burn.NewGasBurner(budget))
		if err != nil {
			require.ErrorIs(t, err, vm.ErrOutOfGas)
			continue
		}
		controller, err := NewController(bridge, statedb, bridge.OwnerAuthorizer(), bridge.Ledger())
		require.NoError(t, err)
		err = controller.Mint(origin.Root(), alice, uint256.NewInt(250))
		if err == nil {
			break
		}
		require.ErrorIs(t, err, vm.ErrOutOfGas)
		require.Equal(t, rootBefore, statedb.IntermediateRoot(true), "budget %d", budget)
		failures++
	}
	require.Positive(t, failures)

	bridge, err := OpenSystemBridgeState(statedb, true)
	require.NoError(t, err)
	quota, err := bridge.Quota()
	requireAmount(t, 750, quota, err)
	balance, err := bridge.Ledger().BalanceOf(alice)
	requireAmount(t, 250, balance, err)
}

func TestEventsFollowAcceptanceOrder(t *testing.T) {
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, 10_000))

	var expected []mintlog.MintEvent
	for i := uint64(0); i < 8; i++ {
		account := testhelpers.RandomAddress()
		amount := uint256.NewInt(10 + i)
		Require(t, controller.Mint(origin.Root(), account, amount))
		expected = append(expected, mintlog.MintEvent{Index: i, Account: account, Amount: amount})
		// rejected mints in between must not disturb the order
		if err := controller.Mint(origin.None(), account, amount); !errors.Is(err, ErrUnauthorized) {
			Fail(t, "expected ErrUnauthorized, got", err)
		}
	}
	events, err := controller.Events(0, 0)
	require.NoError(t, err)
	require.Len(t, events, len(expected))
	for i, event := range events {
		require.Equal(t, expected[i].Index, event.Index)
		require.Equal(t, expected[i].Account, event.Account)
		require.True(t, expected[i].Amount.Eq(event.Amount))
	}
	tail, err := controller.Events(6, 10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, uint64(6), tail[0].Index)
}

func TestConcurrentMintsNeverOverIssue(t *testing.T) {
	const initial = 10_000
	controller, _, _ := newTestController(t, testGenesis(ModeIssuance, initial))

	var (
		wg       sync.WaitGroup
		mutex    sync.Mutex
		accepted uint64
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				amount := testhelpers.RandomUint64(1, 500)
				err := controller.Mint(origin.Root(), testhelpers.RandomAddress(), uint256.NewInt(amount))
				if err == nil {
					mutex.Lock()
					accepted += amount
					mutex.Unlock()
				} else if !errors.Is(err, ErrInsufficientQuota) {
					t.Error("unexpected mint error", err)
				}
			}
		}()
	}
	wg.Wait()

	quota, err := controller.Quota()
	require.NoError(t, err)
	require.LessOrEqual(t, accepted, uint64(initial))
	require.Equal(t, uint64(initial)-accepted, quota.Uint64())
	issuance, err := controller.TotalIssuance()
	require.NoError(t, err)
	require.Equal(t, accepted, issuance.Uint64())

	events, err := controller.Events(0, 0)
	require.NoError(t, err)
	var sum uint64
	for i, event := range events {
		require.Equal(t, uint64(i), event.Index)
		sum += event.Amount.Uint64()
	}
	require.Equal(t, accepted, sum)
}

func TestPoolModeNeedsTransferLedger(t *testing.T) {
	bridge, statedb, err := NewBridgeMemoryBackedState(testGenesis(ModePool, 100))
	require.NoError(t, err)
	_, err = NewController(bridge, statedb, bridge.OwnerAuthorizer(), partialLedger{bridge.Ledger()})
	require.NoError(t, err, "embedding keeps Transfer available")

	type creditOnly struct{ ledger.Ledger }
	_, err = NewController(bridge, statedb, bridge.OwnerAuthorizer(), creditOnly{bridge.Ledger()})
	require.Error(t, err)
}

func TestNewControllerRejectsMissingJournal(t *testing.T) {
	bridge, _, err := NewBridgeMemoryBackedState(testGenesis(ModeIssuance, 100))
	require.NoError(t, err)
	_, err = NewController(bridge, nil, bridge.OwnerAuthorizer(), bridge.Ledger())
	require.Error(t, err)
}

func TestPoolMintIntoPotRejected(t *testing.T) {
	controller, bridge, _ := newTestController(t, testGenesis(ModePool, 1000))
	pot := bridge.ModuleAccount()

	err := controller.Mint(origin.Root(), pot, uint256.NewInt(400))
	require.ErrorIs(t, err, ErrPotDestination)

	quota, err := controller.Quota()
	requireAmount(t, 1000, quota, err, "pot")
	minted, err := controller.Minted()
	requireAmount(t, 0, minted, err, "minted")
	count, err := controller.EventCount()
	require.NoError(t, err)
	require.Zero(t, count)

	// conservation still holds after a regular mint
	require.NoError(t, controller.Mint(origin.Root(), common.Address{7}, uint256.NewInt(400)))
	quota, err = controller.Quota()
	requireAmount(t, 600, quota, err, "pot")
	minted, err = controller.Minted()
	requireAmount(t, 400, minted, err, "minted")
}

func TestIssuanceMintIntoModuleAccountAllowed(t *testing.T) {
	controller, bridge, _ := newTestController(t, testGenesis(ModeIssuance, 1000))
	require.NoError(t, controller.Mint(origin.Root(), bridge.ModuleAccount(), uint256.NewInt(400)))
	quota, err := controller.Quota()
	requireAmount(t, 600, quota, err)
	balance, err := controller.BalanceOf(bridge.ModuleAccount())
	requireAmount(t, 400, balance, err)
}
