// Package stats derives period aggregates and usage patterns from history.
package stats

import (
	"time"

	"github.com/j-veylop/claude-watch/internal/models"
)

// PeriodStats aggregates one metric over a lookback window. Count is zero
// when no samples fell in the window; the numeric fields are meaningless in
// that case and callers must check Count first.
type PeriodStats struct {
	Count      int
	Min        float64
	Max        float64
	Avg        float64
	Current    float64
	Values     []float64
	Timestamps []time.Time
}

// Period filters history to entries newer than now-hours with a non-nil
// value for field, preserving store order, and aggregates them. Current is
// the last filtered value in that order: recency is only guaranteed when
// the input is time-ordered, which is the caller's responsibility.
func Period(history []models.HistoryEntry, hours int, field string) PeriodStats {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var out PeriodStats
	for i := range history {
		v := history[i].Field(field)
		if v == nil || !history[i].Timestamp.After(cutoff) {
			continue
		}
		out.Values = append(out.Values, *v)
		out.Timestamps = append(out.Timestamps, history[i].Timestamp)
	}

	if len(out.Values) == 0 {
		return PeriodStats{}
	}

	out.Count = len(out.Values)
	out.Min = out.Values[0]
	out.Max = out.Values[0]
	sum := 0.0
	for _, v := range out.Values {
		if v < out.Min {
			out.Min = v
		}
		if v > out.Max {
			out.Max = v
		}
		sum += v
	}
	out.Avg = sum / float64(out.Count)
	out.Current = out.Values[out.Count-1]
	return out
}

// weekdayNames indexes time.Weekday (Sunday first).
var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Peaks reports the local day-of-week and hour-of-day with the highest mean
// usage. PeakDay is empty and PeakHour is -1 when there is no data. Ties
// resolve to the earliest bucket (Sunday first, hour ascending) because
// only a strictly greater mean displaces the running winner.
type Peaks struct {
	PeakDay     string
	PeakDayAvg  float64
	PeakHour    int
	PeakHourAvg float64
}

// DailyPeaks buckets non-nil samples of field by local weekday and local
// hour and returns the bucket with the highest mean in each dimension.
func DailyPeaks(history []models.HistoryEntry, field string) Peaks {
	var daySum [7]float64
	var dayCount [7]int
	var hourSum [24]float64
	var hourCount [24]int

	for i := range history {
		v := history[i].Field(field)
		if v == nil {
			continue
		}
		local := history[i].Timestamp.Local()
		dow := int(local.Weekday())
		daySum[dow] += *v
		dayCount[dow]++
		hourSum[local.Hour()] += *v
		hourCount[local.Hour()]++
	}

	peaks := Peaks{PeakHour: -1}

	for dow := 0; dow < 7; dow++ {
		if dayCount[dow] == 0 {
			continue
		}
		avg := daySum[dow] / float64(dayCount[dow])
		if peaks.PeakDay == "" || avg > peaks.PeakDayAvg {
			peaks.PeakDay = weekdayNames[dow]
			peaks.PeakDayAvg = avg
		}
	}

	for hour := 0; hour < 24; hour++ {
		if hourCount[hour] == 0 {
			continue
		}
		avg := hourSum[hour] / float64(hourCount[hour])
		if peaks.PeakHour < 0 || avg > peaks.PeakHourAvg {
			peaks.PeakHour = hour
			peaks.PeakHourAvg = avg
		}
	}

	return peaks
}

// Heatmap holds average utilization per local weekday and hour slot.
// Count disambiguates "no data" from "average of zero".
type Heatmap struct {
	Avg   [7][24]float64
	Count [7][24]int
}

// BuildHeatmap buckets non-nil samples of field into a weekday-by-hour grid.
func BuildHeatmap(history []models.HistoryEntry, field string) Heatmap {
	var sum [7][24]float64
	var hm Heatmap

	for i := range history {
		v := history[i].Field(field)
		if v == nil {
			continue
		}
		local := history[i].Timestamp.Local()
		dow := int(local.Weekday())
		hour := local.Hour()
		sum[dow][hour] += *v
		hm.Count[dow][hour]++
	}

	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			if hm.Count[d][h] > 0 {
				hm.Avg[d][h] = sum[d][h] / float64(hm.Count[d][h])
			}
		}
	}
	return hm
}

// Downsample reduces values to at most width points by stride sampling,
// keeping the timestamp of each kept point. Inputs shorter than width are
// returned as-is.
func Downsample(values []float64, timestamps []time.Time, width int) ([]float64, []time.Time) {
	if width <= 0 || len(values) <= width {
		return values, timestamps
	}
	step := float64(len(values)) / float64(width)
	outV := make([]float64, 0, width)
	outT := make([]time.Time, 0, width)
	for i := 0; i < width; i++ {
		idx := int(float64(i) * step)
		outV = append(outV, values[idx])
		if len(timestamps) == len(values) {
			outT = append(outT, timestamps[idx])
		}
	}
	return outV, outT
}

// sparkChars maps normalized magnitude to a block character.
var sparkChars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a fixed-width block-character strip.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		out := make([]rune, width)
		for i := range out {
			out[i] = '─'
		}
		return string(out)
	}

	values, _ = Downsample(values, nil, width)

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	spread := maxVal - minVal
	if spread == 0 {
		spread = 1
	}

	out := make([]rune, 0, len(values))
	for _, v := range values {
		idx := int((v - minVal) / spread * float64(len(sparkChars)-1))
		out = append(out, sparkChars[idx])
	}
	return string(out)
}
