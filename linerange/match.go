package linerange

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
)

// maxScanLine bounds a single line read by Match.
const maxScanLine = 16 * 1024 * 1024

// Match returns the 1-based numbers of the lines in content that r
// matches. Line terminators are not part of the matched text.
func Match(r *regexp.Regexp, content io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(content)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanLine)

	matches := []int{}
	for line := 1; scanner.Scan(); line++ {
		if r.Match(scanner.Bytes()) {
			matches = append(matches, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	return matches, nil
}
