package mpk

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/stewi1014/mpk/encode"
	"github.com/stewi1014/mpk/member"
)

// Config defines configuration for a Context.
// Zero values are default.
type Config struct {
	// Mode is the object layout for types that do not set their own. AsArray by default.
	Mode Mode

	// TypeModes overrides Mode per type.
	TypeModes map[reflect.Type]Mode

	// SortMapKeys writes map entries in the byte order of their encoded keys,
	// so equal maps always produce equal bytes.
	SortMapKeys bool

	// StrictArity fails objects written as arrays with fewer items than they have members.
	StrictArity bool

	// Logger receives debug messages. If nil, nothing is logged.
	Logger *zap.Logger
}

func (c *Config) copyAndFill() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Mode == member.Inherit {
		config.Mode = AsArray
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return config
}

func (c *Config) registryConfig() encode.Config {
	return encode.Config{
		Mode:        c.Mode,
		TypeModes:   c.TypeModes,
		SortMapKeys: c.SortMapKeys,
		StrictArity: c.StrictArity,
	}
}
