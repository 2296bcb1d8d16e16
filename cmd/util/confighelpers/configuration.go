// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package confighelpers

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
)

var ErrVersion = errors.New("version requested")

func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if len(envPrefix) == 0 {
		return nil
	}
	prefix := strings.ToUpper(envPrefix) + "_"
	return k.Load(env.ProviderWithValue(prefix, ".", func(key string, value string) (string, interface{}) {
		// BRIDGE_LOG__LEVEL becomes log-level, BRIDGE_FEED_REDIS__URL becomes feed.redis-url
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		key = strings.ReplaceAll(key, "__", "-")
		key = strings.ReplaceAll(key, "_", ".")
		if strings.Contains(value, ",") && k.Exists(key) && len(k.Strings(key)) > 0 {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
}

// ApplyOverrides layers environment variables and then command line options over what k already holds.
func ApplyOverrides(f *flag.FlagSet, k *koanf.Koanf) error {
	if err := loadEnvironmentVariables(k); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return fmt.Errorf("error loading command line options: %w", err)
	}
	return nil
}

// BeginCommonParse parses args into f and loads flag defaults, config files, the
// configuration string, environment variables and finally explicit flags, in that order.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return nil, ErrVersion
		}
	}
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() != 0 {
		// Unexpected positional parameter
		return nil, fmt.Errorf("unexpected parameter: %s", f.Arg(0))
	}

	k := koanf.New(".")
	// Load defaults from command line defaults, which are overridden by config files
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}
	for _, configFile := range k.Strings("conf.file") {
		if len(configFile) == 0 {
			continue
		}
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading local config file %s: %w", configFile, err)
		}
	}
	if configString := k.String("conf.string"); len(configString) > 0 {
		if err := k.Load(rawbytes.Provider([]byte(configString)), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config string: %w", err)
		}
	}
	if err := ApplyOverrides(f, k); err != nil {
		return nil, err
	}
	return k, nil
}

// EndCommonParse decodes k into config, rejecting keys config does not declare.
func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		WeaklyTypedInput: true,
		Metadata:         nil,
		Result:           config,
		TagName:          "koanf",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig}); err != nil {
		return err
	}
	return nil
}

// DumpConfig prints the active configuration, blanking the given sensitive keys.
func DumpConfig(k *koanf.Koanf, redacted ...string) error {
	// Don't keep printing configuration file
	overrides := map[string]interface{}{"conf.dump": false}
	for _, key := range redacted {
		if k.Exists(key) {
			overrides[key] = ""
		}
	}
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return fmt.Errorf("error removing extra parameters before dump: %w", err)
	}
	c, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("unable to marshal config file to JSON: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(c))
	return nil
}

func PrintErrorAndExit(err error, usage func(string)) {
	fmt.Fprintf(os.Stderr, "%s\n", err.Error())
	if usage != nil {
		usage("")
	}
	os.Exit(1)
}
