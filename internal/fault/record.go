package fault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	timestampPrefix = "timestamp: "
	argsPrefix      = "args: "
	pidPrefix       = "pid: "
)

// Record is one entry of the crash log. Message always ends in a newline:
// one is added on write when the logged message lacks it.
type Record struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Args      []string  `json:"args" yaml:"args"`
	PID       int       `json:"pid" yaml:"pid"`
	Message   string    `json:"message" yaml:"message"`
}

// ParseRecords splits crash log content into records. A record starts at a
// timestamp/args/pid header and runs until the next valid header; its
// message excludes the trailing blank separator line. Only read errors are
// returned.
func ParseRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading crash log: %w", err)
	}
	text := string(data)

	var (
		records   []Record
		current   *Record
		bodyStart int
	)
	flush := func(end int) {
		if current == nil {
			return
		}
		current.Message = strings.TrimSuffix(text[bodyStart:end], "\n")
		records = append(records, *current)
	}

	for pos := 0; pos < len(text); {
		// Messages are written unescaped, so header-shaped lines that do
		// not parse belong to the current message.
		header, n, err := parseHeader(text[pos:])
		if err == nil && header != nil {
			flush(pos)
			current = header
			pos += n
			bodyStart = pos
			continue
		}
		next := strings.IndexByte(text[pos:], '\n')
		if next < 0 {
			break
		}
		pos += next + 1
	}
	flush(len(text))

	return records, nil
}

// parseHeader parses a record header at the start of s. It returns a nil
// record when s does not start with one.
func parseHeader(s string) (*Record, int, error) {
	lines := make([]string, 0, 3)
	consumed := 0
	for i := 0; i < 3; i++ {
		end := strings.IndexByte(s[consumed:], '\n')
		if end < 0 {
			return nil, 0, nil
		}
		lines = append(lines, s[consumed:consumed+end])
		consumed += end + 1
	}
	if !strings.HasPrefix(lines[0], timestampPrefix) ||
		!strings.HasPrefix(lines[1], argsPrefix) ||
		!strings.HasPrefix(lines[2], pidPrefix) {
		return nil, 0, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, strings.TrimPrefix(lines[0], timestampPrefix))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing timestamp: %w", err)
	}
	args, err := parseArgs(strings.TrimPrefix(lines[1], argsPrefix))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing args: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimPrefix(lines[2], pidPrefix))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing pid: %w", err)
	}

	return &Record{Timestamp: ts, Args: args, PID: pid}, consumed, nil
}

// parseArgs reverses the %q rendering of a []string.
func parseArgs(s string) ([]string, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed args list %q", s)
	}
	rest := strings.TrimSpace(s[1 : len(s)-1])
	args := []string{}
	for rest != "" {
		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return nil, fmt.Errorf("malformed args list %q: %w", s, err)
		}
		arg, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		rest = strings.TrimSpace(rest[len(quoted):])
	}
	return args, nil
}

// LoadRecords reads every record of the crash log under workDir. A missing
// log yields no records and no error.
func LoadRecords(fs afero.Fs, workDir string) ([]Record, error) {
	f, err := fs.Open(LogPath(workDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening crash log: %w", err)
	}
	defer f.Close()

	return ParseRecords(f)
}
