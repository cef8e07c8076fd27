package main

import (
	"fmt"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/core"
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

	var src core.Word
	for i := range src {
		src[i] = uint16(i + 1)
	}

	var srf core.Word
	srf[core.SRFSlots] = 3

	a := addrmap.Address{Row: 1}

	must(driver.Write(a, src.Bytes()))
	must(driver.EnterAllBank(0))
	must(driver.ProgramSRF(0, srf.Bytes()))
	must(driver.ProgramCRF(0, api.ScaleKernel(0)))
	must(driver.EnterPim(0))
	must(driver.Read(a))
	must(driver.Write(a, nil))
	driver.Barrier()

	b, err := device.Memory.Read(device.Mapping.Reverse(a), core.WordBytes)
	must(err)

	var dst core.Word
	dst.Load(b)

	fmt.Println(src)
	fmt.Println(dst)
	fmt.Println("cycles:", driver.Cycles())

	atexit.Exit(0)
}

func must(err error) {
	if err != nil {
		fmt.Println(err)
		atexit.Exit(1)
	}
}
