package fixture

import (
	"context"
	"strconv"

	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

// Columns of the coefficient table.
const (
	ColumnCoef   = "coef"
	ColumnValue  = "value"
	ColumnEnable = "en"
)

// LoadCoefficients reads a coefficient table with the header coef,value,en.
// Values may be decimal or prefixed hex and are truncated to 8 bits. Taps
// that the table does not mention stay at 0 and disabled.
func LoadCoefficients(
	ctx context.Context,
	fs afero.Fs,
	path string,
) (csr.Coefficients, error) {
	var c csr.Coefficients

	t, err := loadTable(ctx, fs, path, ColumnCoef, ColumnValue, ColumnEnable)
	if err != nil {
		return c, err
	}

	for row := 0; row < t.rows(); row++ {
		idxCell := t.cell(row, ColumnCoef)
		idx, err := strconv.Atoi(idxCell)
		if err != nil || idx < 0 || idx >= csr.NumTaps {
			return c, t.malformed(row, ColumnCoef, idxCell)
		}

		valCell := t.cell(row, ColumnValue)
		v, ok := dut.ParseValue(valCell, dut.RadixAuto).Get()
		if !ok {
			return c, t.malformed(row, ColumnValue, valCell)
		}

		enCell := t.cell(row, ColumnEnable)
		en, err := strconv.Atoi(enCell)
		if err != nil {
			return c, t.malformed(row, ColumnEnable, enCell)
		}

		c.Values[idx] = uint8(v & 0xFF)
		c.Enables[idx] = en != 0
	}

	return c, nil
}
