package logging_test

import (
	"bytes"

	"github.com/go-kit/log/level"

	. "github.com/hamedshahidi/word-frequency/logging"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logging", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	It("Should write tagged logfmt records", func() {
		logger, err := New(out, "wordfreq", "info")
		Expect(err).ShouldNot(HaveOccurred())
		level.Info(logger).Log("msg", "upload started", "k", 5)
		line := out.String()
		Expect(line).To(ContainSubstring("svc=wordfreq"))
		Expect(line).To(ContainSubstring("level=info"))
		Expect(line).To(ContainSubstring(`msg="upload started"`))
		Expect(line).To(ContainSubstring("k=5"))
		Expect(line).To(ContainSubstring("ts="))
		Expect(line).To(ContainSubstring("caller="))
	})

	It("Should drop records below the level", func() {
		logger, err := New(out, "wordfreq", "warn")
		Expect(err).ShouldNot(HaveOccurred())
		level.Info(logger).Log("msg", "hidden")
		level.Debug(logger).Log("msg", "hidden")
		Expect(out.Len()).To(BeZero())
		level.Error(logger).Log("msg", "shown")
		Expect(out.String()).To(ContainSubstring("msg=shown"))
	})

	It("Should accept levels in any case", func() {
		_, err := New(out, "wordfreq", "DEBUG")
		Expect(err).ShouldNot(HaveOccurred())
	})

	It("Should refuse an unknown level", func() {
		_, err := New(out, "wordfreq", "loud")
		Expect(err).Should(HaveOccurred())
	})
})
