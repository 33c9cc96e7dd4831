// internal/writer/csv.go
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/poller"
)

// csvHeader is the data log column layout. Each kind owns a
// value/tangent column pair.
var csvHeader = []string{
	"#", "Time", "Equiv. circuit", "Freq. [Hz]",
	"R [Ohm]", "tg R",
	"L [H]", "tg L",
	"C [F]", "tg C",
	"M", "tg M",
}

const csvTimeLayout = "2006-01-02 15:04:05"

// CSVSink appends one ';'-separated row per record.
type CSVSink struct {
	f io.Closer
	w *csv.Writer
}

// OpenCSV opens (or creates) path for appending. The header is written
// when the file is empty.
func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer csv: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("writer csv: %w", err)
	}

	s := NewCSVSink(f, f)
	if st.Size() == 0 {
		if err := s.writeRow(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewCSVSink writes rows to w without a header. c may be nil.
func NewCSVSink(w io.Writer, c io.Closer) *CSVSink {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return &CSVSink{f: c, w: cw}
}

// Write appends the record of a completed cycle.
func (s *CSVSink) Write(res poller.CycleResult) error {
	if res.Aborted || res.Record == nil {
		return nil
	}
	return s.writeRow(csvRow(res.Record))
}

func (s *CSVSink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("writer csv: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("writer csv: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if s.f == nil {
		return s.w.Error()
	}
	return s.f.Close()
}

func csvRow(rec *measure.Record) []string {
	row := make([]string, len(csvHeader))
	row[0] = strconv.FormatUint(rec.Seq, 10)
	row[1] = rec.At.Format(csvTimeLayout)
	row[2] = rec.Circuit
	row[3] = formatFloat(rec.Frequency)

	col := 4 + 2*int(rec.Kind)
	if col+1 < len(row) {
		row[col] = formatFloat(rec.Primary)
		row[col+1] = formatFloat(rec.Tangent)
	}
	return row
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
