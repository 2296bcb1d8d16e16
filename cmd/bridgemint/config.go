// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package main

import (
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/bridgemint/cmd/genericconf"
	"github.com/offchainlabs/bridgemint/cmd/util/confighelpers"
	"github.com/offchainlabs/bridgemint/pubsub"
)

type ChainConfig struct {
	Name      string   `koanf:"name"`
	InfoFiles []string `koanf:"info-files"`
}

var ChainConfigDefault = ChainConfig{
	Name:      "dev",
	InfoFiles: nil,
}

func ChainConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".name", ChainConfigDefault.Name, "chain preset to build genesis from (dev, local_testnet, staging, or a name from info-files)")
	f.StringSlice(prefix+".info-files", ChainConfigDefault.InfoFiles, "chain info files searched before the embedded presets")
}

type BridgeMintConfig struct {
	Conf          genericconf.ConfConfig          `koanf:"conf"`
	LogLevel      string                          `koanf:"log-level"`
	LogType       string                          `koanf:"log-type"`
	FileLogging   genericconf.FileLoggingConfig   `koanf:"file-logging"`
	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
	Chain         ChainConfig                     `koanf:"chain"`
	Mints         string                          `koanf:"mints"`
	Feed          pubsub.PublisherConfig          `koanf:"feed"`
}

var BridgeMintConfigDefault = BridgeMintConfig{
	Conf:          genericconf.ConfConfigDefault,
	LogLevel:      "info",
	LogType:       "plaintext",
	FileLogging:   genericconf.DefaultFileLoggingConfig,
	Metrics:       false,
	MetricsServer: genericconf.MetricsServerConfigDefault,
	Chain:         ChainConfigDefault,
	Mints:         "",
	Feed:          pubsub.DefaultPublisherConfig,
}

func BridgeMintConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", BridgeMintConfigDefault.LogLevel, "log level, as slog string (trace, debug, info, warn, error, crit) or legacy number (1-5)")
	f.String("log-type", BridgeMintConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	f.Bool("metrics", BridgeMintConfigDefault.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)
	ChainConfigAddOptions("chain", f)
	f.String("mints", BridgeMintConfigDefault.Mints, "JSON file of mint requests to replay against the genesis state")
	pubsub.PublisherConfigAddOptions("feed", f)
}

func (c *BridgeMintConfig) Validate() error {
	if c.Chain.Name == "" {
		return errors.New("chain name cannot be empty")
	}
	return c.Feed.Validate()
}

func ParseBridgeMint(args []string) (*BridgeMintConfig, error) {
	f := flag.NewFlagSet("", flag.ContinueOnError)
	BridgeMintConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}
	var config BridgeMintConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	if config.Conf.Dump {
		if err := confighelpers.DumpConfig(k, "feed.redis-url"); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
