package analytics

import (
	"math"

	"github.com/harpoon-project/backend/internal/models"
)

// peakLocalHour is the assumed local hour of peak trading activity (3pm).
// The inferred UTC offset is whatever shift moves the observed activity
// center onto this hour.
const peakLocalHour = 15.0

// offsetConfidenceFloor is the minimum mean resultant length of the circular
// distribution required to report an offset at all. Below it the hourly
// pattern is too diffuse to place.
const offsetConfidenceFloor = 0.1

// TimezoneReport is the hour-of-day activity profile and the timezone
// inferred from it.
type TimezoneReport struct {
	TradeCount        int      `json:"trade_count"`
	HourHistogram     [24]int  `json:"hour_histogram"`
	ActivityCenterUTC *float64 `json:"activity_center_utc"`
	InferredUTCOffset *float64 `json:"inferred_utc_offset"`
	Region            *string  `json:"region"`
	// Confidence is the mean resultant length of the hour distribution:
	// 1.0 for a single spike, 0.0 for perfectly uniform activity.
	Confidence float64 `json:"confidence"`
}

// utcOffsetEntry pairs a representative UTC offset with a region label.
type utcOffsetEntry struct {
	Offset float64
	Region string
}

// The 26 representative offsets: every whole hour from -12 to +12, plus the
// +5.5 half-hour zone.
var utcOffsets = []utcOffsetEntry{
	{-12, "Baker Island"},
	{-11, "American Samoa"},
	{-10, "Hawaii"},
	{-9, "Alaska"},
	{-8, "US Pacific"},
	{-7, "US Mountain"},
	{-6, "US Central"},
	{-5, "US Eastern"},
	{-4, "Atlantic / Caribbean"},
	{-3, "Brazil / Argentina"},
	{-2, "Mid-Atlantic"},
	{-1, "Azores / Cape Verde"},
	{0, "UK / Portugal"},
	{1, "Central Europe"},
	{2, "Eastern Europe"},
	{3, "Moscow / East Africa"},
	{4, "Gulf States"},
	{5, "Pakistan"},
	{5.5, "India"},
	{6, "Bangladesh"},
	{7, "Southeast Asia"},
	{8, "China / Singapore"},
	{9, "Japan / Korea"},
	{10, "Eastern Australia"},
	{11, "Solomon Islands"},
	{12, "New Zealand"},
}

// InferTimezone builds the 24-bucket hour histogram and infers the wallet's
// likely UTC offset via the circular mean of trade hours. With zero trades
// every derived field is null and the histogram is all zeros.
func InferTimezone(trades []models.Trade) *TimezoneReport {
	report := &TimezoneReport{TradeCount: len(trades)}
	for i := range trades {
		report.HourHistogram[trades[i].Timestamp.UTC().Hour()]++
	}
	if len(trades) == 0 {
		return report
	}

	var sinSum, cosSum float64
	for hour, count := range report.HourHistogram {
		angle := 2 * math.Pi * float64(hour) / 24
		sinSum += math.Sin(angle) * float64(count)
		cosSum += math.Cos(angle) * float64(count)
	}
	resultant := math.Hypot(sinSum, cosSum) / float64(len(trades))
	report.Confidence = resultant

	var center float64
	if resultant < 1e-9 {
		// Perfectly uniform activity: the vector sum is degenerate, so fall
		// back to the weighted arithmetic mean hour.
		var hourSum float64
		for hour, count := range report.HourHistogram {
			hourSum += float64(hour) * float64(count)
		}
		center = hourSum / float64(len(trades))
	} else {
		center = math.Atan2(sinSum, cosSum) * 24 / (2 * math.Pi)
		for center < 0 {
			center += 24
		}
		for center >= 24 {
			center -= 24
		}
	}
	centerRounded := round1(center)
	report.ActivityCenterUTC = &centerRounded

	if resultant < offsetConfidenceFloor {
		// Too diffuse to place in a timezone.
		return report
	}

	offset := peakLocalHour - center
	for offset > 12 {
		offset -= 24
	}
	for offset < -12 {
		offset += 24
	}
	// Nearest half hour, then nearest table entry.
	offset = math.Round(offset*2) / 2

	best := utcOffsets[0]
	for _, entry := range utcOffsets[1:] {
		if math.Abs(entry.Offset-offset) < math.Abs(best.Offset-offset) {
			best = entry
		}
	}

	report.InferredUTCOffset = &best.Offset
	report.Region = &best.Region
	return report
}
