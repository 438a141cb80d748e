package reader

import (
	"bufio"
	"bytes"
	"strings"
)

const maxLineBytes = 1024 * 1024

func readLines(data []byte) (any, error) {
	lines := []any{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, malformed(LineList, err)
	}

	return lines, nil
}
