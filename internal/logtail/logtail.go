package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

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
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity of a console log line.
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelTokens = map[string]Level{
	"TRC": LevelTrace,
	"DBG": LevelDebug,
	"INF": LevelInfo,
	"WRN": LevelWarn,
	"ERR": LevelError,
	"FTL": LevelFatal,
	"PNC": LevelFatal,
}

// Entry is one parsed console line.
type Entry struct {
	Time    string
	Level   Level
	Message string
}

// TimeFormat is the timestamp layout the application writes log lines with.
const TimeFormat = "2006-01-02 15:04:05"

// Parse splits a console line of the form "<date> <time> <LVL> <message>".
// Lines that do not match come back as a message with LevelUnknown.
func Parse(line string) Entry {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) == 4 {
		if level, ok := levelTokens[fields[2]]; ok {
			return Entry{
				Time:    fields[0] + " " + fields[1],
				Level:   level,
				Message: fields[3],
			}
		}
	}
	return Entry{Message: line}
}

// Filter keeps the lines at or above min. Unparsed continuation lines follow
// the decision for the line before them.
func Filter(lines []string, min Level) []string {
	if min <= LevelUnknown {
		return lines
	}
	out := make([]string, 0, len(lines))
	keep := false
	for _, line := range lines {
		entry := Parse(line)
		if entry.Level != LevelUnknown {
			keep = entry.Level >= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}
