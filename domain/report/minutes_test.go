package report_test

import (
	"cleanops/bizerror"
	"cleanops/domain/report"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestParseClock(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should parse valid clock times", func(t *testing.T) {
		Expect(report.ParseClock("00:00")).To(Equal(0))
		Expect(report.ParseClock("09:00")).To(Equal(540))
		Expect(report.ParseClock("23:59")).To(Equal(23*60 + 59))
	})

	t.Run("should reject malformed clock times", func(t *testing.T) {
		for _, value := range []string{"", "9", "9:0:0", "24:00", "12:60", "ab:cd", "-1:30"} {
			_, err := report.ParseClock(value)
			Expect(err).ToNot(BeNil(), "value %q", value)
		}
	})
}

func TestDeriveWorkMinutes(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should subtract break from the worked span", func(t *testing.T) {
		Expect(report.DeriveWorkMinutes("09:00", "18:00", false, 60)).To(Equal(480))
	})

	t.Run("should cross midnight once when nextDay is set", func(t *testing.T) {
		Expect(report.DeriveWorkMinutes("22:00", "06:00", true, 30)).To(Equal(450))
	})

	t.Run("should floor at zero when the break exceeds the span", func(t *testing.T) {
		Expect(report.DeriveWorkMinutes("09:00", "09:30", false, 60)).To(Equal(0))
	})

	t.Run("should reject a negative break", func(t *testing.T) {
		_, err := report.DeriveWorkMinutes("09:00", "18:00", false, -1)
		var badParam *bizerror.ErrBadParam
		Expect(errors.As(err, &badParam)).To(BeTrue())
	})

	t.Run("should reject invalid clock inputs", func(t *testing.T) {
		_, err := report.DeriveWorkMinutes("9am", "18:00", false, 0)
		Expect(err).ToNot(BeNil())
		_, err = report.DeriveWorkMinutes("09:00", "25:00", false, 0)
		Expect(err).ToNot(BeNil())
	})
}

func TestParseWorkDate(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should accept an ISO date", func(t *testing.T) {
		Expect(report.ParseWorkDate("2025-04-01")).To(Equal("2025-04-01"))
	})

	t.Run("should reject non ISO dates", func(t *testing.T) {
		for _, value := range []string{"2025/04/01", "04-01-2025", "2025-13-01", ""} {
			_, err := report.ParseWorkDate(value)
			Expect(err).ToNot(BeNil(), "value %q", value)
		}
	})
}

func TestMonthRange(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should span the whole calendar month", func(t *testing.T) {
		from, to, err := report.MonthRange("2025-04")
		Expect(err).To(BeNil())
		Expect(from).To(Equal("2025-04-01"))
		Expect(to).To(Equal("2025-04-30"))
	})

	t.Run("should handle february", func(t *testing.T) {
		from, to, err := report.MonthRange("2024-02")
		Expect(err).To(BeNil())
		Expect(from).To(Equal("2024-02-01"))
		Expect(to).To(Equal("2024-02-29"))
	})

	t.Run("should reject invalid months", func(t *testing.T) {
		_, _, err := report.MonthRange("2025-4")
		Expect(err).ToNot(BeNil())
	})
}
