// Package export renders list views as downloadable CSV files.
package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// Filename returns <prefix>-<yyyy-MM-dd>.csv for the date of now.
func Filename(prefix string, now time.Time) string {
	return prefix + "-" + now.Format("2006-01-02") + ".csv"
}

// CSV writes header followed by rows. Fields containing commas, quotes or
// newlines are quoted.
func CSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// File is a rendered export ready to be served as an attachment.
type File struct {
	Name string
	Data []byte
}

// Amount renders minor units with two decimals.
func Amount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	cents := minor % 100
	out := sign + strconv.FormatInt(minor/100, 10) + "."
	if cents < 10 {
		out += "0"
	}
	return out + strconv.FormatInt(cents, 10)
}
