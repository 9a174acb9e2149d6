package wordfreq_test

import (
	. "github.com/hamedshahidi/word-frequency"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("PairRows", func() {
	It("Should keep the service's order and duplicates", func() {
		rows, mismatch := PairRows([]string{"the", "a", "the"}, []int{120, 95, 80})
		Expect(mismatch).To(BeNil())
		Expect(rows).To(Equal([]Row{{"the", 120}, {"a", 95}, {"the", 80}}))
	})

	It("Should pair up to the shorter list and report the rest", func() {
		rows, mismatch := PairRows([]string{"the", "a", "of"}, []int{120, 95})
		Expect(rows).To(Equal([]Row{{"the", 120}, {"a", 95}}))
		Expect(mismatch).ToNot(BeNil())
		Expect(mismatch.Unpaired()).To(Equal(1))
		Expect(mismatch.Error()).To(ContainSubstring("3 words but 2 frequencies"))

		rows, mismatch = PairRows([]string{"the"}, []int{1, 2, 3})
		Expect(rows).To(Equal([]Row{{"the", 1}}))
		Expect(mismatch.Unpaired()).To(Equal(2))
	})

	It("Should return no rows for empty lists", func() {
		rows, mismatch := PairRows(nil, nil)
		Expect(mismatch).To(BeNil())
		Expect(rows).To(BeEmpty())
	})
})
