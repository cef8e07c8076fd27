package config

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/controller"
	"github.com/sarchlab/pimfuncsim/dram"
	"github.com/sarchlab/pimfuncsim/monitor"
)

// Device is a fully wired PIM stack.
type Device struct {
	Config       Config
	Mapping      addrmap.Mapping
	Memory       *dram.PhysicalMemory
	Controller   *controller.Controller
	MemorySystem *dram.FunctionalMemorySystem
	Monitor      *monitor.QueueHook
}

// DeviceBuilder can build PIM devices.
type DeviceBuilder struct {
	config  Config
	monitor *monitor.QueueHook
}

// NewDeviceBuilder returns a builder using the default configuration.
func NewDeviceBuilder() DeviceBuilder {
	return DeviceBuilder{config: Default()}
}

// WithConfig sets the device parameters.
func (d DeviceBuilder) WithConfig(c Config) DeviceBuilder {
	d.config = c
	return d
}

// WithMonitor sets the hook that observes every queue.
func (d DeviceBuilder) WithMonitor(h *monitor.QueueHook) DeviceBuilder {
	d.monitor = h
	return d
}

// Build creates a device. It panics on an invalid configuration.
func (d DeviceBuilder) Build(name string) *Device {
	if err := d.config.Validate(); err != nil {
		panic(err)
	}

	if d.monitor == nil {
		d.monitor = monitor.NewQueueHook()
	}

	dev := &Device{
		Config:  d.config,
		Mapping: addrmap.NewMapping(d.config.Layout),
		Memory:  dram.NewPhysicalMemory(d.config.Capacity()),
		Monitor: d.monitor,
	}

	dev.Controller = controller.NewBuilder().
		WithTopology(d.config.Topology()).
		WithMapping(dev.Mapping).
		WithMemory(dev.Memory).
		WithHook(d.monitor).
		Build(name)

	dev.MemorySystem = dram.NewBuilder().
		WithFreq(sim.Freq(d.config.FreqMHz) * sim.MHz).
		WithHandler(dev.Controller).
		WithReadLatency(d.config.ReadLatency).
		WithWriteLatency(d.config.WriteLatency).
		WithQueueDepth(d.config.QueueDepth).
		WithWriteBufferThreshold(d.config.WriteBufferThreshold).
		WithHook(d.monitor).
		Build(name + ".Memory")

	return dev
}
