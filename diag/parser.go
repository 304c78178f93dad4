package diag

import (
	"strconv"
	"strings"
)

// ChunkDelimiter separates individual diagnostics in a compiler transcript.
const ChunkDelimiter = "[CIKernelPool]"

// Parse converts a compiler transcript into compile diagnostics.
//
// The transcript is split on ChunkDelimiter and only the first line of each
// chunk is considered. A line is a diagnostic when it splits on ':' into
// exactly four fields "line: column: type: message" whose first two fields
// are integers. Anything else is skipped without affecting the other lines.
// A message that itself contains ':' therefore never parses.
func Parse(transcript string) []KernelError {
	var errs []KernelError
	for _, chunk := range strings.Split(transcript, ChunkDelimiter) {
		line, _, _ := strings.Cut(chunk, "\n")
		if e, ok := parseLine(line); ok {
			errs = append(errs, e)
		}
	}
	return errs
}

func parseLine(line string) (KernelError, bool) {
	fields := strings.Split(line, ":")
	if len(fields) != 4 {
		return KernelError{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	lineNumber, err := strconv.Atoi(fields[0])
	if err != nil {
		return KernelError{}, false
	}
	characterIndex, err := strconv.Atoi(fields[1])
	if err != nil {
		return KernelError{}, false
	}

	return Compile(lineNumber, characterIndex, Severity(fields[2]), fields[3]), true
}

// Format renders e as one transcript chunk that Parse reads back.
// Runtime diagnostics have no location and are written at -1:-1.
func Format(e KernelError) string {
	line, char := e.LineNumber, e.CharacterIndex
	if e.Kind == KindRuntime {
		line, char = -1, -1
	}
	typ := e.Type
	if typ == "" {
		typ = SeverityError
	}
	return ChunkDelimiter + " " + strconv.Itoa(line) + ": " + strconv.Itoa(char) + ": " + string(typ) + ": " + e.Message + "\n"
}
