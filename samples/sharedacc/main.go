package main

import (
	"fmt"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/workload"
)

func main() {
	c := config.Default()
	c.Channels = 1

	device := config.NewDeviceBuilder().
		WithConfig(c).
		Build("Device")

	driver := api.MakeDriverBuilder().
		WithMemorySystem(device.MemorySystem).
		WithMapping(device.Mapping).
		Build("Driver")

	w := workload.NewSharedAccumulate(device, 0, 2024)
	if err := w.Run(driver); err != nil {
		fmt.Println(err)
		atexit.Exit(1)
	}

	for _, p := range w.Results() {
		fmt.Printf("%4d: %d\n", p.Index, p.Data)
	}

	if err := w.Check(); err != nil {
		fmt.Println(err)
		atexit.Exit(1)
	}

	fmt.Println("matches:", device.Controller.Stats().SharedMatches)
	atexit.Exit(0)
}
