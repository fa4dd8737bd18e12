package fixture_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/fixture"
)

var _ = Describe("Fixtures", func() {
	var (
		fs  afero.Fs
		ctx context.Context
	)

	write := func(path, content string) {
		Expect(afero.WriteFile(fs, path, []byte(content), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		ctx = context.Background()
	})

	Context("coefficients", func() {
		It("should load values and enables", func() {
			write("coef.csv", "coef,value,en\n0,1,1\n1,0x1FF,0\n3, 0x7f ,1\n")

			c, err := fixture.LoadCoefficients(ctx, fs, "coef.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(csr.Coefficients{
				Values:  [csr.NumTaps]uint8{1, 0xFF, 0, 0x7F},
				Enables: [csr.NumTaps]bool{true, false, false, true},
			}))
		})

		It("should reject a tap index out of range", func() {
			write("coef.csv", "coef,value,en\n4,1,1\n")

			_, err := fixture.LoadCoefficients(ctx, fs, "coef.csv")
			Expect(err).To(MatchError(fixture.ErrMalformed))
			Expect(err.Error()).To(ContainSubstring("data row 1"))
		})

		It("should count data rows past comments", func() {
			write("coef.csv", "coef,value,en\n# taps\n0,1,1\n\n# second\n9,1,1\n")

			_, err := fixture.LoadCoefficients(ctx, fs, "coef.csv")
			Expect(err).To(MatchError(fixture.ErrMalformed))
			Expect(err.Error()).To(ContainSubstring("data row 2"))
			Expect(err.Error()).To(ContainSubstring(`coef="9"`))
		})

		It("should reject a table without the enable column", func() {
			write("coef.csv", "coef,value\n0,1\n")

			_, err := fixture.LoadCoefficients(ctx, fs, "coef.csv")
			Expect(err).To(MatchError(fixture.ErrMissingColumn))
		})

		It("should reject a table with only a header", func() {
			write("coef.csv", "coef,value,en\n")

			_, err := fixture.LoadCoefficients(ctx, fs, "coef.csv")
			Expect(err).To(MatchError(fixture.ErrEmptyFile))
		})

		It("should report a missing file", func() {
			_, err := fixture.LoadCoefficients(ctx, fs, "nope.csv")
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Context("vectors", func() {
		It("should read samples in order", func() {
			write("vec.txt", "# identity check\n0x00\n1\n\n0x55\n127\n-3\n")

			v, err := fixture.LoadVectors(fs, "vec.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal([]int64{0x00, 0x01, 0x55, 0x7F, -3}))
		})

		It("should point at the bad line", func() {
			write("vec.txt", "1\n2\nabc\n")

			_, err := fixture.LoadVectors(fs, "vec.txt")
			Expect(err).To(MatchError(fixture.ErrMalformed))
			Expect(err.Error()).To(ContainSubstring("line 3"))
		})

		It("should reject a file without samples", func() {
			write("vec.txt", "# nothing\n\n")

			_, err := fixture.LoadVectors(fs, "vec.txt")
			Expect(err).To(MatchError(fixture.ErrEmptyFile))
		})

		It("should report a missing file", func() {
			_, err := fixture.LoadVectors(fs, "vec.txt")
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Context("power-on-reset specification", func() {
		It("should keep registers in file order", func() {
			write("por.csv", "register,value\nCSR,0x00000000\nCOEF,0\nOUTCAP,20\n")

			por, err := fixture.LoadPOR(ctx, fs, "por.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(por).To(Equal(fixture.POR{
				{Register: "CSR", Value: 0},
				{Register: "COEF", Value: 0},
				{Register: "OUTCAP", Value: 0x20},
			}))

			v, ok := por.Lookup("OUTCAP")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(0x20)))

			_, ok = por.Lookup("STATUS")
			Expect(ok).To(BeFalse())
		})

		It("should match register names in any case", func() {
			write("por.csv", "register,value\ncsr,0\n Coef ,0\n")

			por, err := fixture.LoadPOR(ctx, fs, "por.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(por).To(Equal(fixture.POR{
				{Register: "CSR", Value: 0},
				{Register: "COEF", Value: 0},
			}))

			_, ok := por.Lookup("outcap")
			Expect(ok).To(BeFalse())
			_, ok = por.Lookup("Csr")
			Expect(ok).To(BeTrue())
		})

		It("should reject a register listed twice in different case", func() {
			write("por.csv", "register,value\nCSR,0\ncsr,1\n")

			_, err := fixture.LoadPOR(ctx, fs, "por.csv")
			Expect(err).To(MatchError(fixture.ErrMalformed))
		})

		It("should reject duplicate registers", func() {
			write("por.csv", "register,value\nCSR,0\nCSR,1\n")

			_, err := fixture.LoadPOR(ctx, fs, "por.csv")
			Expect(err).To(MatchError(fixture.ErrMalformed))
		})

		It("should reject values wider than a register", func() {
			write("por.csv", "register,value\nCSR,0x100000000\n")

			_, err := fixture.LoadPOR(ctx, fs, "por.csv")
			Expect(err).To(MatchError(fixture.ErrMalformed))
		})
	})
})
