package csr

import "fmt"

// NumTaps is the number of coefficient stages of the filter.
const NumTaps = 4

// Coefficients is the tap configuration loaded into the filter.
type Coefficients struct {
	Values  [NumTaps]uint8
	Enables [NumTaps]bool
}

// TapEnableField returns the CSR field that enables tap i.
func TapEnableField(i int) string {
	return fmt.Sprintf("c%den", i)
}

// Word packs the coefficient values into the COEF register, tap 0 in the
// least significant byte.
func (c Coefficients) Word() uint32 {
	var w uint32
	for i := NumTaps - 1; i >= 0; i-- {
		w = w<<8 | uint32(c.Values[i])
	}

	return w
}

// ApplyEnables returns r with c0en..c3en replaced by the tap enables.
func (c Coefficients) ApplyEnables(r CSR) CSR {
	for i := 0; i < NumTaps; i++ {
		r = r.WithBit(TapEnableField(i), c.Enables[i])
	}

	return r
}

// UnpackCoefficients splits a COEF register word into tap values.
func UnpackCoefficients(word uint32) [NumTaps]uint8 {
	var v [NumTaps]uint8
	for i := 0; i < NumTaps; i++ {
		v[i] = uint8(word >> (8 * i))
	}

	return v
}
