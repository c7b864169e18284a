package orders

import "time"

// Spreadsheet exports encode dates as serial day counts relative to
// 1899-12-30. Serial 25569 is the Unix epoch, so the conversion is
// (serial - 25569) days worth of seconds.
const serialEpochOffsetDays = 25569

// DateFromSerial converts a spreadsheet serial date to a UTC time. ok is
// false when the serial lands at or before the Unix epoch, which the export
// format treats as an invalid cell.
func DateFromSerial(serial float64) (time.Time, bool) {
	secs := (serial - serialEpochOffsetDays) * 86400
	if secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(secs), 0).UTC(), true
}

// SerialFromDate is the inverse of DateFromSerial, used by test fixtures.
func SerialFromDate(t time.Time) float64 {
	return float64(t.Unix())/86400 + serialEpochOffsetDays
}
