package controller

// Reserved rows. A transaction to one of these rows is a command to the
// controller rather than a data access.
const (
	RowSingleBank = 0x3fff
	RowAllBank    = 0x3ffe
	RowAllBankPim = 0x3ffd
	RowCRF        = 0x3ffc
	RowGRF        = 0x3ffb
	RowSRF        = 0x3ffa
	RowGlobalAcc  = 0x3ff9
	RowDRF        = 0x3ff7
)

// IsReservedRow reports whether a row is a controller command.
func IsReservedRow(row int) bool {
	switch row {
	case RowSingleBank, RowAllBank, RowAllBankPim,
		RowCRF, RowGRF, RowSRF, RowGlobalAcc, RowDRF:
		return true
	}

	return false
}

// Mode is the way a channel treats data transactions.
type Mode int

// The channel modes.
const (
	SingleBank Mode = iota
	AllBank
	AllBankPim
	numModes
)

func (m Mode) String() string {
	switch m {
	case SingleBank:
		return "SB"
	case AllBank:
		return "AB"
	case AllBankPim:
		return "AB-PIM"
	}

	return "?"
}

// Modes lists every mode.
func Modes() []Mode {
	return []Mode{SingleBank, AllBank, AllBankPim}
}

type channelState struct {
	allBank bool
	pim     bool
}

func (s channelState) mode() Mode {
	switch {
	case s.pim:
		return AllBankPim
	case s.allBank:
		return AllBank
	}

	return SingleBank
}

// Topology is the bank organisation the controller serves.
type Topology struct {
	Channels      int
	BankGroups    int
	BanksPerGroup int
}

// Banks returns the banks of one channel.
func (t Topology) Banks() int {
	return t.BankGroups * t.BanksPerGroup
}

// Units returns the compute units of the device, one per two banks.
func (t Topology) Units() int {
	return t.Channels * t.Banks() / 2
}
