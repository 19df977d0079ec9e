package cli

import (
	"bytes"
	"regexp"
)

// RegexpValue is a pflag.Value holding a compiled regular expression.
type RegexpValue struct {
	R *regexp.Regexp
}

func (v *RegexpValue) String() string {
	if v.R == nil {
		return ""
	}
	return v.R.String()
}

// Set compiles s.
func (v *RegexpValue) Set(s string) error {
	r, err := regexp.Compile(s)
	if err != nil {
		return err
	}
	v.R = r
	return nil
}

// Type names the flag's value in help output.
func (v *RegexpValue) Type() string {
	return "regex"
}

// ScanLinesWithEOL is a bufio.SplitFunc like bufio.ScanLines that keeps
// the newline in each token, so a final line without one is reproduced
// exactly.
func ScanLinesWithEOL(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
