package models

import (
	"fmt"
	"time"
)

var bulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders t the way the id-ID locale prints a long date with
// time, e.g. "15 Maret 2024 pukul 10.30".
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d pukul %02d.%02d",
		t.Day(), bulan[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// WithFormattedDate returns a copy of a with FormattedDate filled in.
func (a Aspirasi) WithFormattedDate(loc *time.Location) Aspirasi {
	a.FormattedDate = FormatDate(a.Timestamp, loc)
	return a
}
