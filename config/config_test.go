package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/controller"
)

var _ = Describe("Config", func() {
	writeFile := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "pim.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		return path
	}

	It("should accept the default", func() {
		c := config.Default()

		Expect(c.Validate()).To(Succeed())
		Expect(c.Capacity()).To(Equal(uint64(1) << 32))
		Expect(c.Topology().Units()).To(Equal(128))
	})

	It("should override only the fields in the file", func() {
		path := writeFile("channels: 2\nread_latency: 4\n")

		c, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Channels).To(Equal(2))
		Expect(c.ReadLatency).To(Equal(uint64(4)))
		Expect(c.BankGroups).To(Equal(4))
	})

	It("should load a custom layout", func() {
		path := writeFile("channels: 2\nlayout:\n  channel: {pos: 9, width: 1}\n")

		c, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Layout.Channel.Width).To(Equal(uint(1)))
		Expect(c.Layout.Row.Width).To(Equal(uint(14)))
	})

	It("should reject more channels than the layout holds", func() {
		path := writeFile("channels: 32\n")

		_, err := config.Load(path)

		Expect(err).To(MatchError(ContainSubstring("channels")))
	})

	It("should reject a threshold at the queue depth", func() {
		c := config.Default()
		c.WriteBufferThreshold = c.QueueDepth

		Expect(c.Validate()).NotTo(Succeed())
	})

	It("should report a missing file", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("DeviceBuilder", func() {
	It("should wire the memory system to the controller", func() {
		c := config.Default()
		c.Channels = 1

		dev := config.NewDeviceBuilder().WithConfig(c).Build("PIM")

		Expect(dev.Controller.Units()).To(HaveLen(8))
		Expect(dev.Controller.ModeOf(0)).To(Equal(controller.SingleBank))

		addr := dev.Mapping.Reverse(dev.Mapping.Map(0).WithRow(controller.RowAllBank))
		Expect(dev.MemorySystem.AddTransaction(addr, false, nil)).To(Succeed())
		Expect(dev.Controller.ModeOf(0)).To(Equal(controller.AllBank))
		Expect(dev.Monitor.Total()).To(BeNumerically(">", 0))
	})

	It("should panic on an invalid configuration", func() {
		c := config.Default()
		c.FreqMHz = 0

		Expect(func() { config.NewDeviceBuilder().WithConfig(c).Build("PIM") }).
			To(Panic())
	})
})
