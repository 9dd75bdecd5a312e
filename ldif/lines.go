package ldif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxLineSize bounds a single passwd or group line.
const maxLineSize = 64 * 1024 * 1024

// record is one colon separated line of a passwd or group file.
type record struct {
	line   int
	fields []string
}

// readRecords splits r into records. Blank lines and comments are skipped.
// Lines which aren't valid UTF-8 are read as ISO-8859-1.
func readRecords(r io.Reader, name string) ([]record, error) {
	var records []record

	decoder := charmap.ISO8859_1.NewDecoder()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0

	for scanner.Scan() {
		n++

		line := strings.Trim(scanner.Text(), " \r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !utf8.ValidString(line) {
			decoded, err := decoder.String(line)
			if err != nil {
				return nil, fmt.Errorf("Failed to decode %s:%d: %w", name, n, err)
			}

			line = decoded
		}

		records = append(records, record{line: n, fields: strings.Split(line, ":")})
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("Failed to read %s: %w", name, err)
	}

	return records, nil
}
