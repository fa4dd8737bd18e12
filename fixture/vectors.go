package fixture

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/dut"
)

// LoadVectors reads input samples, one integer per line. Decimal and
// 0x/0o/0b-prefixed values are accepted, as are negative samples. Blank
// lines and lines starting with # are skipped.
func LoadVectors(fs afero.Fs, path string) ([]int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var samples []int64

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		v, ok := dut.ParseValue(text, dut.RadixAuto).Get()
		if !ok {
			return nil, fmt.Errorf("%s line %d: %w: %q",
				path, line, ErrMalformed, text)
		}

		samples = append(samples, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	return samples, nil
}
