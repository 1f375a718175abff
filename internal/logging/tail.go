package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Tail returns at most maxLines from the end of the log at path, or every
// line when maxLines <= 0. A missing file yields no lines.
func Tail(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	n := 0
	for scanner.Scan() {
		ring[n%maxLines] = scanner.Text()
		n++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if n <= maxLines {
		return ring[:n], nil
	}
	start := n % maxLines
	return append(ring[start:], ring[:start]...), nil
}
