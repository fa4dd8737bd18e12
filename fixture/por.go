package fixture

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/dut"
)

// Columns of the power-on-reset table.
const (
	ColumnRegister = "register"
	ColumnPORValue = "value"
)

// Expectation is the value one register must hold after reset.
type Expectation struct {
	Register string
	Value    uint32
}

// POR is the power-on-reset specification, in file order.
type POR []Expectation

// Lookup returns the expected value of a register. Names match without
// regard to case.
func (p POR) Lookup(register string) (uint32, bool) {
	register = registerName(register)
	for _, e := range p {
		if e.Register == register {
			return e.Value, true
		}
	}

	return 0, false
}

// LoadPOR reads a table with the header register,value. Register names are
// stored in upper case. Values are hexadecimal with or without a 0x prefix.
// A register listed twice is rejected.
func LoadPOR(ctx context.Context, fs afero.Fs, path string) (POR, error) {
	t, err := loadTable(ctx, fs, path, ColumnRegister, ColumnPORValue)
	if err != nil {
		return nil, err
	}

	por := make(POR, 0, t.rows())
	for row := 0; row < t.rows(); row++ {
		reg := registerName(t.cell(row, ColumnRegister))
		if reg == "" {
			return nil, t.malformed(row, ColumnRegister, reg)
		}

		if _, dup := por.Lookup(reg); dup {
			return nil, fmt.Errorf("%s: %w: register %s listed twice",
				path, ErrMalformed, reg)
		}

		valCell := t.cell(row, ColumnPORValue)
		v, ok := dut.ParseValue(valCell, dut.RadixHex).Get()
		if !ok || v < 0 || v > 0xFFFFFFFF {
			return nil, t.malformed(row, ColumnPORValue, valCell)
		}

		por = append(por, Expectation{Register: reg, Value: uint32(v)})
	}

	return por, nil
}

func registerName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
