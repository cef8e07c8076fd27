// Package addrmap translates between flat physical addresses and structured
// DRAM coordinates.
package addrmap

import "fmt"

// Address locates one burst in the DRAM.
type Address struct {
	Channel   int
	Rank      int
	BankGroup int
	Bank      int
	Row       int
	Column    int
}

// WithRow returns a copy of the address on another row.
func (a Address) WithRow(row int) Address {
	a.Row = row
	return a
}

// WithColumn returns a copy of the address on another column.
func (a Address) WithColumn(column int) Address {
	a.Column = column
	return a
}

// WithBank returns a copy of the address on another bank.
func (a Address) WithBank(bankGroup, bank int) Address {
	a.BankGroup = bankGroup
	a.Bank = bank
	return a
}

func (a Address) String() string {
	return fmt.Sprintf("ch%d.ra%d.bg%d.ba%d.ro%#x.co%d",
		a.Channel, a.Rank, a.BankGroup, a.Bank, a.Row, a.Column)
}

// Field is the bit position and width of one coordinate in a flat address,
// counted after the shift bits are removed.
type Field struct {
	Pos   uint `yaml:"pos"`
	Width uint `yaml:"width"`
}

func (f Field) mask() uint64 {
	return 1<<f.Width - 1
}

func (f Field) extract(v uint64) int {
	return int((v >> f.Pos) & f.mask())
}

func (f Field) place(v int) uint64 {
	return (uint64(v) & f.mask()) << f.Pos
}

// Layout describes where every coordinate lives in a flat address.
type Layout struct {
	ShiftBits uint  `yaml:"shift_bits"`
	Channel   Field `yaml:"channel"`
	Rank      Field `yaml:"rank"`
	BankGroup Field `yaml:"bank_group"`
	Bank      Field `yaml:"bank"`
	Row       Field `yaml:"row"`
	Column    Field `yaml:"column"`
}

// DefaultLayout is an HBM2-like layout with 32-byte bursts, 32 columns,
// 4 banks per group, 4 groups, 16 channels and 16384 rows.
func DefaultLayout() Layout {
	return Layout{
		ShiftBits: 5,
		Column:    Field{Pos: 0, Width: 5},
		Bank:      Field{Pos: 5, Width: 2},
		BankGroup: Field{Pos: 7, Width: 2},
		Channel:   Field{Pos: 9, Width: 4},
		Rank:      Field{Pos: 13, Width: 0},
		Row:       Field{Pos: 13, Width: 14},
	}
}

func (l Layout) fields() []Field {
	return []Field{l.Channel, l.Rank, l.BankGroup, l.Bank, l.Row, l.Column}
}

// Validate checks that no two coordinates share a bit.
func (l Layout) Validate() error {
	var used uint64

	for _, f := range l.fields() {
		if f.Pos+f.Width > 64-l.ShiftBits {
			return fmt.Errorf("field at %d width %d exceeds the address",
				f.Pos, f.Width)
		}

		bits := f.mask() << f.Pos
		if used&bits != 0 {
			return fmt.Errorf("field at %d width %d overlaps another field",
				f.Pos, f.Width)
		}

		used |= bits
	}

	return nil
}

// Mapping converts addresses under a layout.
type Mapping struct {
	layout Layout
}

// NewMapping creates a mapping. It panics if the layout is inconsistent.
func NewMapping(layout Layout) Mapping {
	if err := layout.Validate(); err != nil {
		panic(err)
	}

	return Mapping{layout: layout}
}

// Layout returns the layout used by the mapping.
func (m Mapping) Layout() Layout {
	return m.layout
}

// BurstBytes is the size of the access granule.
func (m Mapping) BurstBytes() uint64 {
	return 1 << m.layout.ShiftBits
}

// Map splits a flat address into its coordinates.
func (m Mapping) Map(flat uint64) Address {
	v := flat >> m.layout.ShiftBits

	return Address{
		Channel:   m.layout.Channel.extract(v),
		Rank:      m.layout.Rank.extract(v),
		BankGroup: m.layout.BankGroup.extract(v),
		Bank:      m.layout.Bank.extract(v),
		Row:       m.layout.Row.extract(v),
		Column:    m.layout.Column.extract(v),
	}
}

// Reverse packs coordinates back into a flat address.
func (m Mapping) Reverse(a Address) uint64 {
	v := m.layout.Channel.place(a.Channel) |
		m.layout.Rank.place(a.Rank) |
		m.layout.BankGroup.place(a.BankGroup) |
		m.layout.Bank.place(a.Bank) |
		m.layout.Row.place(a.Row) |
		m.layout.Column.place(a.Column)

	return v << m.layout.ShiftBits
}
