// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package bridgeState

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/bridgemint/bridgeos/ledger"
	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/bridgeos/origin"
)

var (
	mintAcceptedCounter     = metrics.NewRegisteredCounter("bridge/mint/accepted", nil)
	mintUnauthorizedCounter = metrics.NewRegisteredCounter("bridge/mint/unauthorized", nil)
	mintInsufficientCounter = metrics.NewRegisteredCounter("bridge/mint/insufficient", nil)
	mintLedgerFailedCounter = metrics.NewRegisteredCounter("bridge/mint/ledger_failed", nil)
)

// Journal undoes state writes. *state.StateDB satisfies it.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(revid int)
}

// Controller gates minting on the bridge quota. Mints are serialized, and a mint
// that fails after its checks leaves no trace in the state.
type Controller struct {
	mutex      sync.Mutex
	state      *BridgeState
	journal    Journal
	authorizer origin.Authorizer
	ledger     ledger.Ledger
	sinks      []mintlog.Sink
}

// NewController wires a controller over an opened bridge state. In pool mode the ledger
// must also implement ledger.TransferLedger.
func NewController(state *BridgeState, journal Journal, authorizer origin.Authorizer, credit ledger.Ledger, sinks ...mintlog.Sink) (*Controller, error) {
	if journal == nil {
		return nil, errors.New("mint controller needs a journal")
	}
	if authorizer == nil {
		return nil, errors.New("mint controller needs an authorizer")
	}
	if credit == nil {
		return nil, errors.New("mint controller needs a ledger")
	}
	if state.Mode() == ModePool {
		if _, ok := credit.(ledger.TransferLedger); !ok {
			return nil, fmt.Errorf("pool mode needs a ledger that supports transfers, got %T", credit)
		}
	}
	return &Controller{
		state:      state,
		journal:    journal,
		authorizer: authorizer,
		ledger:     credit,
		sinks:      sinks,
	}, nil
}

// Mint credits amount to account out of the remaining quota.
func (c *Controller) Mint(caller origin.Origin, account common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.authorizer.EnsureOrigin(caller); err != nil {
		if !errors.Is(err, origin.ErrBadOrigin) {
			return err
		}
		mintUnauthorizedCounter.Inc(1)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	// a transfer from the pot to itself would count as minted without leaving the pot
	if c.state.Mode() == ModePool && account == c.state.ModuleAccount() {
		return fmt.Errorf("%w: %v", ErrPotDestination, account)
	}
	if err := c.ensureSufficient(amount); err != nil {
		if errors.Is(err, ErrInsufficientQuota) {
			mintInsufficientCounter.Inc(1)
		}
		return err
	}

	snapshot := c.journal.Snapshot()
	event, err := c.apply(account, amount)
	if err != nil {
		c.journal.RevertToSnapshot(snapshot)
		var ledgerErr *LedgerError
		if errors.As(err, &ledgerErr) {
			mintLedgerFailedCounter.Inc(1)
			log.Warn("ledger rejected mint", "account", account, "amount", amount, "err", ledgerErr.Err)
		}
		return err
	}
	mintAcceptedCounter.Inc(1)
	log.Debug("minted", "index", event.Index, "account", account, "amount", amount, "caller", caller)
	return nil
}

// quota reads the remaining amount through the controller's ledger, which in pool
// mode may differ from the state's own.
func (c *Controller) quota() (*uint256.Int, error) {
	if c.state.Mode() == ModePool {
		return c.ledger.BalanceOf(c.state.ModuleAccount())
	}
	return c.state.quota.Get()
}

func (c *Controller) ensureSufficient(amount *uint256.Int) error {
	quota, err := c.quota()
	if err != nil {
		return err
	}
	if amount.Gt(quota) {
		return fmt.Errorf("%w: requested %v, remaining %v", ErrInsufficientQuota, amount, quota)
	}
	if c.state.Mode() != ModePool || amount.IsZero() {
		return nil
	}
	minimum, err := c.ledger.(ledger.TransferLedger).MinimumBalance()
	if err != nil {
		return err
	}
	remainder := new(uint256.Int).Sub(quota, amount)
	if remainder.Lt(minimum) {
		return fmt.Errorf("%w: the bridge pot would keep %v, minimum is %v", ErrInsufficientQuota, remainder, minimum)
	}
	return nil
}

func (c *Controller) apply(account common.Address, amount *uint256.Int) (mintlog.MintEvent, error) {
	switch c.state.Mode() {
	case ModePool:
		pool := c.ledger.(ledger.TransferLedger)
		if err := pool.Transfer(c.state.ModuleAccount(), account, amount, true); err != nil {
			return mintlog.MintEvent{}, &LedgerError{Err: err}
		}
	default:
		quota, err := c.state.quota.Get()
		if err != nil {
			return mintlog.MintEvent{}, err
		}
		if err := c.state.quota.Set(quota.Sub(quota, amount)); err != nil {
			return mintlog.MintEvent{}, err
		}
		if err := c.ledger.Credit(account, amount); err != nil {
			return mintlog.MintEvent{}, &LedgerError{Err: err}
		}
	}
	minted, err := c.state.minted.Get()
	if err != nil {
		return mintlog.MintEvent{}, err
	}
	if _, overflow := minted.AddOverflow(minted, amount); overflow {
		return mintlog.MintEvent{}, fmt.Errorf("%w: minted total overflows", ErrInvalidAmount)
	}
	if err := c.state.minted.Set(minted); err != nil {
		return mintlog.MintEvent{}, err
	}
	event, err := c.state.events.Append(account, amount)
	if err != nil {
		return mintlog.MintEvent{}, err
	}
	for _, sink := range c.sinks {
		if err := sink.Emit(event); err != nil {
			return mintlog.MintEvent{}, fmt.Errorf("emitting %v: %w", event, err)
		}
	}
	return event, nil
}

func (c *Controller) Quota() (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.quota()
}

func (c *Controller) InitialQuota() (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.InitialQuota()
}

// Minted returns the sum of all accepted mints.
func (c *Controller) Minted() (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.Minted()
}

func (c *Controller) Mode() Mode {
	return c.state.Mode()
}

func (c *Controller) ModuleAccount() common.Address {
	return c.state.ModuleAccount()
}

func (c *Controller) BalanceOf(account common.Address) (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ledger.BalanceOf(account)
}

func (c *Controller) TotalIssuance() (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ledger.TotalIssuance()
}

// Events returns up to limit accepted mints starting at index from. A limit of 0 means no limit.
func (c *Controller) Events(from, limit uint64) ([]mintlog.MintEvent, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.events.Range(from, limit)
}

func (c *Controller) EventCount() (uint64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.events.Length()
}
