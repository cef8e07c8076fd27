// Package config describes a PIM device and builds it.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/controller"
	"github.com/sarchlab/pimfuncsim/core"
)

// Config holds the parameters of a device.
type Config struct {
	Name          string `yaml:"name"`
	Channels      int    `yaml:"channels"`
	BankGroups    int    `yaml:"bank_groups"`
	BanksPerGroup int    `yaml:"banks_per_group"`

	FreqMHz              float64 `yaml:"freq_mhz"`
	ReadLatency          uint64  `yaml:"read_latency"`
	WriteLatency         uint64  `yaml:"write_latency"`
	QueueDepth           int     `yaml:"queue_depth"`
	WriteBufferThreshold int     `yaml:"write_buffer_threshold"`

	Layout addrmap.Layout `yaml:"layout"`
}

// Default returns one HBM2-like stack.
func Default() Config {
	return Config{
		Name:                 "PIM",
		Channels:             16,
		BankGroups:           4,
		BanksPerGroup:        4,
		FreqMHz:              1000,
		ReadLatency:          20,
		WriteLatency:         20,
		QueueDepth:           32,
		WriteBufferThreshold: 8,
		Layout:               addrmap.DefaultLayout(),
	}
}

// Load reads a YAML file. Fields the file leaves out keep their default.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Topology returns the bank organisation.
func (c Config) Topology() controller.Topology {
	return controller.Topology{
		Channels:      c.Channels,
		BankGroups:    c.BankGroups,
		BanksPerGroup: c.BanksPerGroup,
	}
}

// Capacity returns the bytes the layout can address.
func (c Config) Capacity() uint64 {
	bits := c.Layout.ShiftBits
	for _, f := range []addrmap.Field{
		c.Layout.Channel, c.Layout.Rank, c.Layout.BankGroup,
		c.Layout.Bank, c.Layout.Row, c.Layout.Column,
	} {
		bits += f.Width
	}

	return 1 << bits
}

func fits(n int, f addrmap.Field) bool {
	return n > 0 && n <= 1<<f.Width
}

// Validate reports the first inconsistency in the configuration.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}

	var errs []error

	if 1<<c.Layout.ShiftBits != core.WordBytes {
		errs = append(errs, fmt.Errorf("bursts must be %d bytes", core.WordBytes))
	}

	if !fits(c.Channels, c.Layout.Channel) {
		errs = append(errs, fmt.Errorf("%d channels do not fit the layout", c.Channels))
	}

	if !fits(c.BankGroups, c.Layout.BankGroup) ||
		!fits(c.BanksPerGroup, c.Layout.Bank) {
		errs = append(errs, errors.New("banks do not fit the layout"))
	}

	if c.Topology().Banks()%4 != 0 {
		errs = append(errs, errors.New("banks per channel must be a multiple of 4"))
	}

	if 1<<c.Layout.Row.Width <= controller.RowSingleBank {
		errs = append(errs, errors.New("row field cannot hold the reserved rows"))
	}

	if c.FreqMHz <= 0 {
		errs = append(errs, errors.New("frequency must be positive"))
	}

	if c.WriteBufferThreshold < 0 || c.WriteBufferThreshold >= c.QueueDepth {
		errs = append(errs, errors.New(
			"write buffer threshold must be below the queue depth"))
	}

	return errors.Join(errs...)
}
