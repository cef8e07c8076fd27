// Package dram provides the memory side of the simulator: the byte store
// behind the banks and a functional memory system that accepts transactions
// the way a cycle-level DRAM model would.
package dram

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// PhysicalMemory is the sparse byte store behind every bank.
type PhysicalMemory struct {
	storage  *mem.Storage
	capacity uint64
}

// NewPhysicalMemory creates a store of the given size in bytes.
func NewPhysicalMemory(capacity uint64) *PhysicalMemory {
	return &PhysicalMemory{
		storage:  mem.NewStorage(capacity),
		capacity: capacity,
	}
}

// Capacity returns the size of the store.
func (m *PhysicalMemory) Capacity() uint64 {
	return m.capacity
}

// Read returns n bytes starting at addr.
func (m *PhysicalMemory) Read(addr uint64, n uint64) ([]byte, error) {
	if addr+n > m.capacity {
		return nil, fmt.Errorf("read [%#x, %#x) beyond capacity %#x",
			addr, addr+n, m.capacity)
	}

	return m.storage.Read(addr, n)
}

// Write stores data at addr.
func (m *PhysicalMemory) Write(addr uint64, data []byte) error {
	if addr+uint64(len(data)) > m.capacity {
		return fmt.Errorf("write [%#x, %#x) beyond capacity %#x",
			addr, addr+uint64(len(data)), m.capacity)
	}

	return m.storage.Write(addr, data)
}

// ReadWord returns the i-th little-endian 32-bit word of the burst at addr.
func (m *PhysicalMemory) ReadWord(addr uint64, i int) (uint32, error) {
	b, err := m.Read(addr+uint64(4*i), 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}
