package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jpalmerr/ecobeestatus/internal/logger"
)

var _ = Describe("Logger", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	Describe("New", func() {
		It("should write JSON by default", func() {
			log := logger.New("info", "", buf)
			log.Info("check completed", "all_online", true)

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record["msg"]).To(Equal("check completed"))
			Expect(record["all_online"]).To(BeTrue())
			Expect(record["service"]).To(Equal("ecobeestatus"))
		})

		It("should write text when asked", func() {
			log := logger.New("info", "text", buf)
			log.Info("hub accepted state", "status_code", 200)

			Expect(buf.String()).To(ContainSubstring(`msg="hub accepted state"`))
			Expect(buf.String()).To(ContainSubstring("status_code=200"))
		})

		It("should respect the level", func() {
			log := logger.New("warn", "json", buf)
			Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(context.Background(), slog.LevelWarn)).To(BeTrue())

			log.Info("dropped")
			Expect(buf.Len()).To(BeZero())
		})

		It("should default to stderr", func() {
			Expect(logger.New("info", "json", nil)).NotTo(BeNil())
		})
	})

	DescribeTable("ParseLevel",
		func(in string, want slog.Level) {
			Expect(logger.ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("info", "info", slog.LevelInfo),
		Entry("warn", "warn", slog.LevelWarn),
		Entry("warning", "WARNING", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("unknown defaults to info", "loud", slog.LevelInfo),
		Entry("empty defaults to info", "", slog.LevelInfo),
	)
})
