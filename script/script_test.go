package script_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/dut/duttest"
	"github.com/sarchlab/firverify/scenario"
	"github.com/sarchlab/firverify/script"
)

var _ = Describe("Lua scenario", func() {
	var (
		ctx      context.Context
		platform scenario.Platform
	)

	BeforeEach(func() {
		ctx = context.Background()
		platform = scenario.DefaultPlatform()
	})

	run := func(src string, d *duttest.Device) (*scenario.Result, error) {
		return script.New("user", src, platform).Run(ctx, d)
	}

	It("should record what the unit answers", func() {
		r, err := run(`
dut.reset()
dut.enable()
local c = csr.decode(dut.read(addr.CSR))
record("fen", c.fen, 1)
record("filtered", dut.drive(0x55))
`, duttest.NewDevice("golden", duttest.Faults{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Scenario).To(Equal("user"))
		Expect(r.Unit).To(Equal("golden"))

		fen, ok := r.Lookup("fen")
		Expect(ok).To(BeTrue())
		Expect(fen.Value).To(Equal(dut.Available(1)))
		Expect(fen.HasExpectation).To(BeTrue())

		// Coefficients are zero after reset.
		filtered, _ := r.Lookup("filtered")
		Expect(filtered.Value).To(Equal(dut.Available(0)))
	})

	It("should turn nil reads into unavailable observations", func() {
		r, err := run(`
local ok, msg = dut.reset()
if not ok then note(msg) end
record("csr", dut.read(addr.CSR))
record("decoded", csr.decode(dut.read(addr.CSR)))
`, duttest.NewDevice("impl0", duttest.Faults{Mute: true}))
		Expect(err).NotTo(HaveOccurred())

		o, _ := r.Lookup("csr")
		Expect(o.Value).To(Equal(dut.Unavailable))
		o, _ = r.Lookup("decoded")
		Expect(o.Value).To(Equal(dut.Unavailable))
		Expect(r.Notes).To(ConsistOf(ContainSubstring("does not answer")))
	})

	It("should build sequences with gaps", func() {
		r, err := run(`
append("out", 1)
append("out", nil)
append("out", 3)
record("fixed", {4, 5})
`, duttest.NewDevice("golden", duttest.Faults{}))
		Expect(err).NotTo(HaveOccurred())

		out, _ := r.Lookup("out")
		Expect(out.Kind).To(Equal(scenario.KindSequence))
		Expect(out.Values).To(Equal([]dut.Value{
			dut.Available(1), dut.Unavailable, dut.Available(3),
		}))

		fixed, _ := r.Lookup("fixed")
		Expect(fixed.Values).To(Equal([]dut.Value{dut.Available(4), dut.Available(5)}))
	})

	It("should encode register words through the layout", func() {
		d := duttest.NewDevice("golden", duttest.Faults{})
		r, err := run(`
local w = csr.encode({fen = 1, halt = 1, rsvd = 0x1FF})
record("word", w)
dut.write(addr.CSR, w)
record("halt", csr.decode(dut.read(addr.CSR)).halt)
`, d)
		Expect(err).NotTo(HaveOccurred())

		w, _ := r.Lookup("word")
		Expect(w.Value).To(Equal(dut.Available(0xFF800021)))
		halt, _ := r.Lookup("halt")
		Expect(halt.Value).To(Equal(dut.Available(1)))
	})

	It("should reject unknown fields", func() {
		_, err := run(`csr.encode({bogus = 1})`,
			duttest.NewDevice("golden", duttest.Faults{}))
		Expect(err).To(MatchError(ContainSubstring("bogus")))
	})

	It("should report a broken script as an error", func() {
		_, err := run(`record(`, duttest.NewDevice("golden", duttest.Faults{}))
		Expect(err).To(HaveOccurred())
	})

	It("should load a script named after its file", func() {
		fs := afero.NewMemMapFs()
		Expect(afero.WriteFile(fs, "/s/coef_readback.lua",
			[]byte(`record("coef", dut.read(addr.COEF))`), 0o644)).To(Succeed())

		s, err := script.Load(fs, "/s/coef_readback.lua", platform)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("coef_readback"))

		r, err := s.Run(ctx, duttest.NewDevice("golden", duttest.Faults{}))
		Expect(err).NotTo(HaveOccurred())
		o, _ := r.Lookup("coef")
		Expect(o.Value).To(Equal(dut.Available(0)))
	})

	It("should fail to load a missing script", func() {
		_, err := script.Load(afero.NewMemMapFs(), "nope.lua", platform)
		Expect(err).To(HaveOccurred())
	})
})
