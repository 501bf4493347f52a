// Package config loads the TOML meter configuration: global options plus a
// list of per-meter tables naming a driver, an address expression list, an
// identity mode and an optional decryption key. Grounded on
// NotCoffee418-european_smart_meter's pkg/config, which loads a flat TOML
// document with github.com/BurntSushi/toml into a plain struct and
// validates domain fields right after Decode instead of deferring
// validation to first use.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/travnick/wmbusmeters/internal/address"
	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/errs"
)

// MeterEntry is one `[[meter]]` table: the on-disk form of a component C9
// MeterInfo before its address expressions and key are parsed and validated.
type MeterEntry struct {
	Name       string `toml:"name"`
	Driver     string `toml:"driver"`
	Address    string `toml:"address"`
	Identity   string `toml:"identity"`
	Key        string `toml:"key"`
	IsTemplate bool   `toml:"template"`
}

// Config is the root of a wmbusmeters-core TOML document.
type Config struct {
	LogLevel string       `toml:"log_level"`
	Meters   []MeterEntry `toml:"meter"`
}

// ParsedMeter is a MeterEntry after its address expression list, identity
// mode and key bytes have been validated against components C3/C1.
type ParsedMeter struct {
	Name         string
	Driver       string
	Addresses    []address.AddressExpression
	IdentityMode address.IdentityMode
	Key          []byte
	IsTemplate   bool
}

// Load reads and validates the TOML document at path.
func Load(path string) (*Config, []ParsedMeter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindParseError, err, "reading config file %q", path)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML document already in memory.
func Parse(data []byte) (*Config, []ParsedMeter, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errs.Wrap(errs.KindParseError, err, "parsing config TOML")
	}

	parsed := make([]ParsedMeter, 0, len(cfg.Meters))
	for _, m := range cfg.Meters {
		pm, err := validateMeter(m)
		if err != nil {
			return nil, nil, err
		}
		parsed = append(parsed, pm)
	}
	return &cfg, parsed, nil
}

func validateMeter(m MeterEntry) (ParsedMeter, error) {
	if m.Name == "" {
		return ParsedMeter{}, errs.New(errs.KindParseError, "meter entry missing a name")
	}
	if m.Driver == "" {
		return ParsedMeter{}, errs.New(errs.KindParseError, "meter %q missing a driver (use \"auto\" to resolve by mfct/media/version)", m.Name)
	}

	exprs, err := parseAddressList(m.Address)
	if err != nil {
		return ParsedMeter{}, errs.Wrap(errs.KindParseError, err, "meter %q: invalid address expression", m.Name)
	}
	if len(exprs) == 0 {
		return ParsedMeter{}, errs.New(errs.KindParseError, "meter %q has no address expressions", m.Name)
	}

	mode := address.IdentityNone
	if m.Identity != "" {
		mode = address.ParseIdentityMode(m.Identity)
		if mode == address.IdentityInvalid {
			return ParsedMeter{}, errs.New(errs.KindParseError, "meter %q: invalid identity mode %q", m.Name, m.Identity)
		}
	} else if m.IsTemplate {
		mode = address.IdentityID
	}

	var key []byte
	if m.Key != "" && m.Key != "NOKEY" {
		key, err = binutil.Hex2Bin(m.Key)
		if err != nil {
			return ParsedMeter{}, errs.Wrap(errs.KindParseError, err, "meter %q: invalid key hex", m.Name)
		}
		if len(key) != 16 {
			return ParsedMeter{}, errs.New(errs.KindParseError, "meter %q: key must be 16 bytes, got %d", m.Name, len(key))
		}
	}

	return ParsedMeter{
		Name:         m.Name,
		Driver:       m.Driver,
		Addresses:    exprs,
		IdentityMode: mode,
		Key:          key,
		IsTemplate:   m.IsTemplate,
	}, nil
}

func parseAddressList(s string) ([]address.AddressExpression, error) {
	if s == "" {
		return nil, nil
	}
	var out []address.AddressExpression
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			part := s[start:i]
			start = i + 1
			if part == "" {
				continue
			}
			expr, err := address.ParseExpression(part)
			if err != nil {
				return nil, err
			}
			out = append(out, expr)
		}
	}
	return out, nil
}
