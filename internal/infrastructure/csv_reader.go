package infrastructure

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"adscope/internal/domain"
)

// ReadRows converts an uploaded delimited file into ordered raw rows:
// original header mapped to raw string value, no type coercion. That is the
// whole contract with the enrichment pipeline, which performs all cleaning
// itself. Rows with the wrong field count are skipped, not fatal.
func ReadRows(r io.Reader) ([]domain.RawRow, error) {
	buffered := bufio.NewReader(r)

	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(headers) > 0 {
		// Strip a UTF-8 BOM some exporters prepend.
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		row := make(domain.RawRow, len(headers))
		for i, value := range record {
			if i >= len(headers) {
				break
			}
			header := headers[i]
			// Duplicate headers: keep the first non-empty value.
			if existing, ok := row[header]; ok && existing != "" {
				continue
			}
			row[header] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// sniffDelimiter peeks at the header line. Meta exports are comma separated,
// but some locales re-save them with semicolons.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	peeked, err := r.Peek(4096)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if len(peeked) == 0 {
		return 0, io.EOF
	}

	line := string(peeked)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Contains(line, ";") && !strings.Contains(line, ",") {
		return ';', nil
	}
	return ',', nil
}
