package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/config"
	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

var _ = Describe("Config", func() {
	var fs afero.Fs

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
	})

	write := func(text string) {
		Expect(afero.WriteFile(fs, "firverify.yaml", []byte(text), 0o644)).
			To(Succeed())
	}

	It("should default to the lab setup", func() {
		c := config.Default()

		Expect(c.Validate()).To(Succeed())
		Expect(c.Golden).To(Equal("golden"))
		Expect(c.Candidates).To(HaveLen(6))
		Expect(c.Addresses).To(Equal(dut.DefaultAddressMap()))
		Expect(c.Timeout).To(Equal(10 * time.Second))
		Expect(c.RadixValue()).To(Equal(dut.RadixHex))
		Expect(c.Buffer.Capacity).To(Equal(255))
		Expect(c.Buffer.Margin).To(Equal(5))
	})

	It("should override only what the file sets", func() {
		write(`
unit_dir: /lab/units
candidates: [impl0, impl3]
timeout: 2s
parallelism: 3
radix: auto
files:
  coefficients: coef.csv
  vectors: /data/ramp.vec
  por: por.csv
`)

		c, err := config.Load(fs, "firverify.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Golden).To(Equal("golden"))
		Expect(c.Candidates).To(Equal([]string{"impl0", "impl3"}))
		Expect(c.Timeout).To(Equal(2 * time.Second))
		Expect(c.Parallelism).To(Equal(3))
		Expect(c.RadixValue()).To(Equal(dut.RadixAuto))
		Expect(c.TestSignal).To(Equal(int64(0x55)))

		opts, err := c.LibraryOptions(fs)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.CoefficientsFile).To(Equal(filepath.Join("/lab/units", "coef.csv")))
		Expect(opts.VectorsFile).To(Equal("/data/ramp.vec"))
		Expect(opts.Capacity).To(Equal(255))
		Expect(opts.EnableFilter).To(BeTrue())
		Expect(opts.FS).To(BeIdenticalTo(fs))
	})

	It("should read an address map", func() {
		write(`
addresses:
  csr: 0x10
  coef: 0x14
  outcap: 0x18
`)

		c, err := config.Load(fs, "firverify.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Addresses).To(Equal(dut.AddressMap{CSR: 0x10, COEF: 0x14, OUTCAP: 0x18}))
	})

	It("should build a custom layout", func() {
		write(`
layout_name: rev2
layout:
  - {name: fen, shift: 0, width: 1}
  - {name: c0en, shift: 1, width: 1}
  - {name: c1en, shift: 2, width: 1}
  - {name: c2en, shift: 3, width: 1}
  - {name: c3en, shift: 4, width: 1}
  - {name: halt, shift: 8, width: 1}
  - {name: ibcnt, shift: 16, width: 8}
  - {name: ibovf, shift: 24, width: 1}
  - {name: ibclr, shift: 25, width: 1}
  - {name: tclr, shift: 26, width: 1}
`)

		c, err := config.Load(fs, "firverify.yaml")
		Expect(err).NotTo(HaveOccurred())

		p, err := c.Platform()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Layout.Name()).To(Equal("rev2"))

		f, ok := p.Layout.Field(csr.FieldHalt)
		Expect(ok).To(BeTrue())
		Expect(f.Shift).To(Equal(uint(8)))
	})

	DescribeTable("should reject",
		func(text string) {
			write(text)
			_, err := config.Load(fs, "firverify.yaml")
			Expect(err).To(MatchError(config.ErrInvalidConfig))
		},
		Entry("a missing golden unit", `golden: ""`),
		Entry("a unit listed twice", `candidates: [impl0, golden]`),
		Entry("an empty candidate", `candidates: [""]`),
		Entry("shared addresses", "addresses: {csr: 0, coef: 0, outcap: 8}"),
		Entry("a zero timeout", `timeout: 0s`),
		Entry("negative parallelism", `parallelism: -1`),
		Entry("an unknown radix", `radix: octal`),
		Entry("an empty buffer", "buffer: {capacity: 0, margin: 5}"),
		Entry("a layout missing required fields", "layout:\n  - {name: fen, shift: 0, width: 1}"),
	)

	It("should report a missing file", func() {
		_, err := config.Load(fs, "nope.yaml")
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should report malformed YAML", func() {
		write("candidates: [impl0")
		_, err := config.Load(fs, "firverify.yaml")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(config.ErrInvalidConfig))
	})
})
