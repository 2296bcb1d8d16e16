// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/bridgemint/cmd/genericconf"
	"github.com/offchainlabs/bridgemint/cmd/util"
	"github.com/offchainlabs/bridgemint/cmd/util/confighelpers"
)

func printSampleUsage(name string) {
	fmt.Printf("Sample usage: %s --chain.name=dev --mints=mints.json\n", name)
}

func main() {
	os.Exit(mainImpl())
}

func mainImpl() int {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	if err := util.SetLogger("info", "plaintext"); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	args := os.Args[1:]
	config, err := ParseBridgeMint(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, confighelpers.ErrVersion) {
			fmt.Println("bridgemint")
			return 0
		}
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config.Conf.Dump {
		return 0
	}
	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, genericconf.DefaultPathResolver("")); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	defer func() {
		if err := genericconf.CloseFileLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", err)
		}
	}()
	if err := util.StartMetrics(&util.MetricsOpts{Metrics: config.Metrics, MetricsServer: config.MetricsServer}); err != nil {
		log.Error("Error starting metrics", "err", err)
		return 1
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigint
		log.Info("shutting down because of sigint")
		cancelFunc()
	}()

	summary, err := runBridgeMint(ctx, config)
	if err != nil {
		log.Error("bridgemint failed", "err", err)
		return 1
	}
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Error("failed to encode summary", "err", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}
