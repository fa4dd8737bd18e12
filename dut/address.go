package dut

import "fmt"

// Register names of the address map.
const (
	RegisterCSR    = "CSR"
	RegisterCOEF   = "COEF"
	RegisterOUTCAP = "OUTCAP"
)

// AddressMap places the filter registers in the device address space.
type AddressMap struct {
	CSR    uint32 `yaml:"csr"`
	COEF   uint32 `yaml:"coef"`
	OUTCAP uint32 `yaml:"outcap"`
}

// DefaultAddressMap returns CSR=0x0, COEF=0x4, OUTCAP=0x8.
func DefaultAddressMap() AddressMap {
	return AddressMap{CSR: 0x0, COEF: 0x4, OUTCAP: 0x8}
}

// Register is a named register address.
type Register struct {
	Name    string
	Address uint32
}

// Registers lists the registers in the order they are read after reset.
func (m AddressMap) Registers() []Register {
	return []Register{
		{Name: RegisterCSR, Address: m.CSR},
		{Name: RegisterCOEF, Address: m.COEF},
		{Name: RegisterOUTCAP, Address: m.OUTCAP},
	}
}

// Validate rejects maps where two registers share an address.
func (m AddressMap) Validate() error {
	seen := make(map[uint32]string)
	for _, r := range m.Registers() {
		if other, ok := seen[r.Address]; ok {
			return fmt.Errorf("registers %s and %s share address %s",
				other, r.Name, FormatHex(int64(r.Address)))
		}
		seen[r.Address] = r.Name
	}

	return nil
}
