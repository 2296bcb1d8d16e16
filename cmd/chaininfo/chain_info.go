// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package chaininfo

import (
	"bytes"
	"crypto/ecdsa"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/offchainlabs/bridgemint/bridgeos/bridgeState"
)

//go:embed bridge_chain_info.json
var DefaultChainInfo []byte

type ChainInfo struct {
	ChainName          string                `json:"chain-name"`
	Bridge             BridgeInfo            `json:"bridge"`
	ExistentialDeposit *math.HexOrDecimal256 `json:"existential-deposit"`
	Root               *Account              `json:"root,omitempty"`
	Endowments         []Endowment           `json:"endowments"`
	Owners             []Account             `json:"owners,omitempty"`
}

type BridgeInfo struct {
	Mode         bridgeState.Mode      `json:"mode"`
	ModuleID     bridgeState.ModuleID  `json:"module-id"`
	InitialQuota *math.HexOrDecimal256 `json:"initial-quota"`
	MinimumQuota *math.HexOrDecimal256 `json:"minimum-quota,omitempty"`
}

type Endowment struct {
	Account Account               `json:"account"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// Account is written either as a hex address or as a "//"-prefixed development seed.
type Account struct {
	Address common.Address
	Seed    string
}

func (a Account) MarshalText() ([]byte, error) {
	if a.Seed != "" {
		return []byte("//" + a.Seed), nil
	}
	return a.Address.MarshalText()
}

func (a *Account) UnmarshalText(text []byte) error {
	s := string(text)
	if seed, ok := strings.CutPrefix(s, "//"); ok {
		address, err := DevAccount(seed)
		if err != nil {
			return err
		}
		*a = Account{Address: address, Seed: seed}
		return nil
	}
	if !common.IsHexAddress(s) {
		return fmt.Errorf("invalid account %q", s)
	}
	*a = Account{Address: common.HexToAddress(s)}
	return nil
}

// DevKey derives a well-known development key from a seed such as "Alice" or "Alice//stash".
// Never use these keys for anything holding value.
func DevKey(seed string) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(crypto.Keccak256([]byte("//" + seed)))
}

func DevAccount(seed string) (common.Address, error) {
	key, err := DevKey(seed)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "deriving development account %q", seed)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func toUint256(value *math.HexOrDecimal256, name string) (*uint256.Int, error) {
	if value == nil {
		return nil, nil
	}
	if (*big.Int)(value).Sign() < 0 {
		return nil, fmt.Errorf("%s %v is negative", name, (*big.Int)(value))
	}
	amount, overflow := uint256.FromBig((*big.Int)(value))
	if overflow {
		return nil, fmt.Errorf("%s %v does not fit in 256 bits", name, (*big.Int)(value))
	}
	return amount, nil
}

// GenesisInfo converts the chain info into bridge genesis parameters.
func (info *ChainInfo) GenesisInfo() (*bridgeState.GenesisInfo, error) {
	initialQuota, err := toUint256(info.Bridge.InitialQuota, "initial quota")
	if err != nil {
		return nil, err
	}
	minimumQuota, err := toUint256(info.Bridge.MinimumQuota, "minimum quota")
	if err != nil {
		return nil, err
	}
	existentialDeposit, err := toUint256(info.ExistentialDeposit, "existential deposit")
	if err != nil {
		return nil, err
	}
	genesis := &bridgeState.GenesisInfo{
		Bridge: bridgeState.Config{
			Mode:         info.Bridge.Mode,
			ModuleID:     info.Bridge.ModuleID,
			InitialQuota: initialQuota,
			MinimumQuota: minimumQuota,
		},
		MinimumBalance: existentialDeposit,
	}
	for _, endowment := range info.Endowments {
		amount, err := toUint256(endowment.Amount, "endowment of "+endowment.Account.Address.Hex())
		if err != nil {
			return nil, err
		}
		genesis.Balances = append(genesis.Balances, bridgeState.Endowment{Account: endowment.Account.Address, Amount: amount})
	}
	for _, owner := range info.Owners {
		genesis.Owners = append(genesis.Owners, owner.Address)
	}
	return genesis, nil
}

func parseChainsInfo(chainsInfoBytes []byte) ([]ChainInfo, error) {
	var chainsInfo []ChainInfo
	err := json.Unmarshal(chainsInfoBytes, &chainsInfo)
	if err == nil {
		return chainsInfo, nil
	}
	decodedChainsInfoBytes, decodeErr := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(chainsInfoBytes)))
	if decodeErr != nil {
		return nil, err
	}
	if err := json.Unmarshal(decodedChainsInfoBytes, &chainsInfo); err != nil {
		return nil, err
	}
	return chainsInfo, nil
}

// ProcessChainInfo looks chainName up in the given files, in order, then in the embedded presets.
func ProcessChainInfo(chainName string, chainInfoFiles []string) (*ChainInfo, error) {
	for _, chainInfoFile := range chainInfoFiles {
		chainsInfoBytes, err := os.ReadFile(chainInfoFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read chain info file %s", chainInfoFile)
		}
		chainsInfo, err := parseChainsInfo(chainsInfoBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse chain info file %s", chainInfoFile)
		}
		for _, chainInfo := range chainsInfo {
			if chainInfo.ChainName == chainName {
				return &chainInfo, nil
			}
		}
	}

	chainsInfo, err := parseChainsInfo(DefaultChainInfo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse embedded chain info")
	}
	for _, chainInfo := range chainsInfo {
		if chainInfo.ChainName == chainName {
			return &chainInfo, nil
		}
	}
	return nil, fmt.Errorf("unsupported chain %v", chainName)
}
