// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/offchainlabs/bridgemint/bridgeos/bridgeState"
	"github.com/offchainlabs/bridgemint/bridgeos/burn"
	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/bridgeos/origin"
	"github.com/offchainlabs/bridgemint/bridgeos/storage"
	"github.com/offchainlabs/bridgemint/cmd/chaininfo"
	"github.com/offchainlabs/bridgemint/pubsub"
	"github.com/offchainlabs/bridgemint/util/redisutil"
)

// Caller is "root", "none", a hex address or a "//"-prefixed development seed.
type Caller struct {
	origin.Origin
}

func (c *Caller) UnmarshalText(text []byte) error {
	switch string(text) {
	case "root":
		c.Origin = origin.Root()
	case "none", "":
		c.Origin = origin.None()
	default:
		var account chaininfo.Account
		if err := account.UnmarshalText(text); err != nil {
			return err
		}
		c.Origin = origin.Signed(account.Address)
	}
	return nil
}

type MintRequest struct {
	Caller  Caller                `json:"caller"`
	Account chaininfo.Account     `json:"account"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type MintResult struct {
	Account common.Address `json:"account"`
	Amount  string         `json:"amount"`
	Caller  string         `json:"caller"`
	Error   string         `json:"error,omitempty"`
}

type Summary struct {
	Chain         string         `json:"chain"`
	Mode          string         `json:"mode"`
	ModuleAccount common.Address `json:"module-account"`
	GenesisRoot   common.Hash    `json:"genesis-root"`
	StateRoot     common.Hash    `json:"state-root"`
	InitialQuota  string         `json:"initial-quota"`
	Quota         string         `json:"quota"`
	Minted        string         `json:"minted"`
	TotalIssuance string         `json:"total-issuance"`
	Accepted      int            `json:"accepted"`
	Rejected      int            `json:"rejected"`
	ReceiptLogs   int            `json:"receipt-logs"`
	FeedPublished int            `json:"feed-published"`
	Results       []MintResult   `json:"results"`
}

func loadMintRequests(path string) ([]MintRequest, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mints file %s", path)
	}
	var requests []MintRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, errors.Wrapf(err, "failed to parse mints file %s", path)
	}
	return requests, nil
}

func toAmount(value *math.HexOrDecimal256) *uint256.Int {
	if value == nil || (*big.Int)(value).Sign() < 0 {
		return nil
	}
	amount, overflow := uint256.FromBig((*big.Int)(value))
	if overflow {
		return nil
	}
	return amount
}

type bridgeRun struct {
	statedb    *state.StateDB
	controller *bridgeState.Controller
	summary    *Summary
}

func newBridgeRun(config *BridgeMintConfig) (*bridgeRun, error) {
	info, err := chaininfo.ProcessChainInfo(config.Chain.Name, config.Chain.InfoFiles)
	if err != nil {
		return nil, err
	}
	genesis, err := info.GenesisInfo()
	if err != nil {
		return nil, errors.Wrapf(err, "chain %s", info.ChainName)
	}
	statedb := storage.NewMemoryBackedStateDB()
	bridge, genesisRoot, err := bridgeState.Initialize(statedb, burn.NewSystemBurner(false), genesis)
	if err != nil {
		return nil, errors.Wrapf(err, "chain %s genesis", info.ChainName)
	}

	authorizer := origin.EnsureAny{bridge.OwnerAuthorizer()}
	if info.Root != nil {
		authorizer = append(authorizer, origin.EnsureSignedBy{Account: info.Root.Address})
	}
	receipts := mintlog.NewReceiptSink(statedb, storage.BridgeStateAddress)
	controller, err := bridgeState.NewController(bridge, statedb, authorizer, bridge.Ledger(), receipts)
	if err != nil {
		return nil, err
	}
	return &bridgeRun{
		statedb:    statedb,
		controller: controller,
		summary: &Summary{
			Chain:         info.ChainName,
			Mode:          bridge.Mode().String(),
			ModuleAccount: bridge.ModuleAccount(),
			GenesisRoot:   genesisRoot,
			Results:       []MintResult{},
		},
	}, nil
}

func (r *bridgeRun) replay(requests []MintRequest) {
	for _, request := range requests {
		result := MintResult{Account: request.Account.Address, Caller: request.Caller.Origin.String()}
		amount := toAmount(request.Amount)
		if amount != nil {
			result.Amount = amount.Dec()
		}
		err := r.controller.Mint(request.Caller.Origin, request.Account.Address, amount)
		if err != nil {
			result.Error = err.Error()
			r.summary.Rejected++
			log.Info("mint rejected", "account", request.Account.Address, "amount", amount, "err", err)
		} else {
			r.summary.Accepted++
		}
		r.summary.Results = append(r.summary.Results, result)
	}
}

func (r *bridgeRun) publish(ctx context.Context, cfg *pubsub.PublisherConfig) error {
	if !cfg.Enable {
		return nil
	}
	client, err := redisutil.RedisClientFromURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()
	publisher, err := pubsub.NewPublisher(client, r.controller, cfg)
	if err != nil {
		return err
	}
	for {
		published, err := publisher.PublishPending(ctx)
		if err != nil {
			return err
		}
		if published == 0 {
			return nil
		}
		r.summary.FeedPublished += published
	}
}

func (r *bridgeRun) finish() (*Summary, error) {
	quota, err := r.controller.Quota()
	if err != nil {
		return nil, err
	}
	initialQuota, err := r.controller.InitialQuota()
	if err != nil {
		return nil, err
	}
	minted, err := r.controller.Minted()
	if err != nil {
		return nil, err
	}
	issuance, err := r.controller.TotalIssuance()
	if err != nil {
		return nil, err
	}
	r.summary.Quota = quota.Dec()
	r.summary.InitialQuota = initialQuota.Dec()
	r.summary.Minted = minted.Dec()
	r.summary.TotalIssuance = issuance.Dec()
	r.summary.ReceiptLogs = len(r.statedb.Logs())
	r.summary.StateRoot = r.statedb.IntermediateRoot(true)
	return r.summary, nil
}

// runBridgeMint builds genesis, replays the configured mints and publishes the feed.
func runBridgeMint(ctx context.Context, config *BridgeMintConfig) (*Summary, error) {
	requests, err := loadMintRequests(config.Mints)
	if err != nil {
		return nil, err
	}
	run, err := newBridgeRun(config)
	if err != nil {
		return nil, err
	}
	run.replay(requests)
	if err := run.publish(ctx, &config.Feed); err != nil {
		return nil, fmt.Errorf("publishing mint feed: %w", err)
	}
	return run.finish()
}
