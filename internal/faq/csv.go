package faq

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// utf8BOM is the byte-order mark some editors and export tools prepend to
// CSV files (the original FAQ exports are utf-8-sig).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads question/answer rows from r. The first record is a header
// row that must contain `question` and `answer` columns (case-insensitive,
// any order, extra columns ignored). A leading UTF-8 BOM is tolerated.
//
// Rows with a missing or empty question or answer cell are skipped and
// logged — a malformed row never aborts the load. The returned slice
// preserves source order.
func LoadCSV(r io.Reader, log *slog.Logger) ([]Row, error) {
	if log == nil {
		log = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("faq: read source: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("faq: read header: %w", err)
	}

	qCol, aCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			qCol = i
		case "answer":
			aCol = i
		}
	}
	if qCol < 0 || aCol < 0 {
		return nil, fmt.Errorf("faq: header must contain question and answer columns, got %v", header)
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn("faq: skipping malformed row",
				slog.Int("line", line),
				slog.Any("error", err),
			)
			continue
		}

		if qCol >= len(record) || aCol >= len(record) {
			log.Warn("faq: skipping short row", slog.Int("line", line))
			continue
		}

		q := strings.TrimSpace(record[qCol])
		a := strings.TrimSpace(record[aCol])
		if q == "" || a == "" {
			log.Warn("faq: skipping row with empty question or answer", slog.Int("line", line))
			continue
		}

		rows = append(rows, Row{Question: q, Answer: a})
	}

	return rows, nil
}
