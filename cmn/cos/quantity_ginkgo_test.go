package cos_test

import (
	"github.com/NVIDIA/aisloadgen/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("ToSizeIEC", func() {
	DescribeTable("should render bytes with the right IEC suffix",
		func(bytes int64, expected string) {
			Expect(cos.ToSizeIEC(bytes)).To(Equal(expected))
		},
		Entry("zero bytes", int64(0), "0B"),
		Entry("sub-KiB", int64(512), "512B"),
		Entry("exactly one KiB", int64(cos.KiB), "1.00KiB"),
		Entry("exactly one MiB", int64(cos.MiB), "1.00MiB"),
		Entry("exactly one GiB", int64(cos.GiB), "1.00GiB"),
	)

	It("round-trips through ParseSize for whole KiB/MiB/GiB quantities", func() {
		for _, b := range []int64{cos.KiB, 8 * cos.KiB, cos.MiB, cos.GiB} {
			rendered := cos.ToSizeIEC(b)
			parsed, err := cos.ParseSize(rendered)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(b))
		}
	})
})
