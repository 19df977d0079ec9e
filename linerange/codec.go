package linerange

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoSelection is what Encode returns for an empty set of lines. Callers
// treat it as an instruction to clear the fragment entirely.
const NoSelection = ""

// MaxDecodedLines bounds how many lines Decode expands across all tokens
// of one fragment. A token that would push the total past it is skipped,
// so "L1-999999999" cannot force a huge allocation while a lone
// "L2000000" still decodes.
const MaxDecodedLines = 1 << 20

// tokenPrefix starts every range token.
const tokenPrefix = "L"

// Range is an inclusive run of 1-based line numbers.
type Range struct {
	Start int
	End   int
}

// Len returns the number of lines covered by r.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// String renders r as a single range token.
func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("L%d", r.Start)
	}
	return fmt.Sprintf("L%d-L%d", r.Start, r.End)
}

// Compact renders r with a bare range end, "L7-9", the form fluffy
// paste pages parse.
func (r Range) Compact() string {
	if r.Start == r.End {
		return fmt.Sprintf("L%d", r.Start)
	}
	return fmt.Sprintf("L%d-%d", r.Start, r.End)
}

// Decode parses a fragment such as "L3,L7-L9" into ascending, unique line
// numbers. A leading '#' is ignored. Tokens that do not start with 'L',
// do not hold integers, have more than two parts, or describe an
// inverted range are skipped.
func Decode(fragment string) []int {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return []int{}
	}

	seen := make(map[int]struct{})
	budget := MaxDecodedLines
	for _, token := range strings.Split(fragment, ",") {
		start, end, ok := parseToken(token)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function": "Decode",
				"token":    token,
			}).Debug("Skipping malformed range token")
			continue
		}
		span := end - start + 1
		if span > budget {
			logrus.WithFields(logrus.Fields{
				"function": "Decode",
				"token":    token,
				"lines":    span,
			}).Debug("Skipping range token beyond the decode limit")
			continue
		}
		budget -= span
		// Counting by offset keeps end == math.MaxInt from overflowing.
		for i := 0; i < span; i++ {
			seen[start+i] = struct{}{}
		}
	}

	lines := make([]int, 0, len(seen))
	for n := range seen {
		lines = append(lines, n)
	}
	sort.Ints(lines)
	return lines
}

// parseToken returns the clamped inclusive bounds of one token.
func parseToken(token string) (int, int, bool) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return 0, 0, false
	}

	parts := strings.Split(strings.TrimPrefix(token, tokenPrefix), "-")
	if len(parts) > 2 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	end := start
	if len(parts) > 1 {
		end, err = strconv.Atoi(strings.TrimPrefix(parts[1], tokenPrefix))
		if err != nil {
			return 0, 0, false
		}
	}

	if start < 1 {
		start = 1
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

// Ranges sorts lines and merges adjacent numbers into the minimal list of
// inclusive ranges. Duplicates and values below 1 are dropped.
func Ranges(lines []int) []Range {
	sorted := normalize(lines)
	ranges := make([]Range, len(sorted))
	for i, n := range sorted {
		ranges[i] = Range{Start: n, End: n}
	}

	// Merge right to left so every removal only shifts already-visited entries.
	for i := len(ranges) - 1; i > 0; i-- {
		if ranges[i-1].End == ranges[i].Start-1 {
			ranges[i-1].End = ranges[i].End
			ranges = append(ranges[:i], ranges[i+1:]...)
		}
	}
	return ranges
}

// Encode renders lines in canonical fragment form, or NoSelection when
// there is nothing to select.
func Encode(lines []int) string {
	return encode(lines, Range.String)
}

// EncodeCompact is Encode with bare range ends ("L3,L7-9"). Links meant
// for a fluffy server's paste page must use this form.
func EncodeCompact(lines []int) string {
	return encode(lines, Range.Compact)
}

func encode(lines []int, render func(Range) string) string {
	ranges := Ranges(lines)
	if len(ranges) == 0 {
		return NoSelection
	}

	tokens := make([]string, len(ranges))
	for i, r := range ranges {
		tokens[i] = render(r)
	}
	return strings.Join(tokens, ",")
}

// Apply writes the encoded selection into u's fragment, clearing the
// fragment when lines is empty.
func Apply(u *url.URL, lines []int) {
	u.Fragment = Encode(lines)
	u.RawFragment = ""
}

// ApplyCompact is Apply using EncodeCompact.
func ApplyCompact(u *url.URL, lines []int) {
	u.Fragment = EncodeCompact(lines)
	u.RawFragment = ""
}

func normalize(lines []int) []int {
	seen := make(map[int]struct{}, len(lines))
	out := make([]int, 0, len(lines))
	for _, n := range lines {
		if n < 1 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
