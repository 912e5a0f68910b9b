package envfile

import (
	"bytes"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Rewrite applies updates to dotenv content. Lines that are blank, comments, not KEY=value, or carry a key
// outside updates are copied byte-for-byte. A quoted value that spans several lines is one entry with its
// KEY line. The first entry for an updated key is replaced in place and later entries for the same key are
// dropped, so each updated key appears exactly once. Keys not present in content are appended in sorted
// order.
func Rewrite(content []byte, updates map[string]string) []byte {
	var out bytes.Buffer
	out.Grow(len(content) + 64*len(updates))

	written := make(map[string]bool, len(updates))
	lines := bytes.SplitAfter(content, []byte("\n"))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if len(line) == 0 {
			continue
		}
		key, ok := lineKey(string(line))
		if !ok {
			out.Write(line)
			continue
		}
		end := entryEnd(lines, i)
		entry := lines[i : end+1]
		i = end

		v, updated := updates[key]
		if !updated {
			for _, l := range entry {
				out.Write(l)
			}
			continue
		}
		if written[key] {
			continue
		}
		written[key] = true
		out.WriteString(renderLine(key, v))
		out.WriteString(lineEnding(entry[len(entry)-1]))
	}

	pending := make([]string, 0, len(updates))
	for k := range updates {
		if !written[k] {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		return out.Bytes()
	}
	sort.Strings(pending)
	if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}
	for _, k := range pending {
		out.WriteString(renderLine(k, updates[k]))
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// lineKey returns the key of a KEY=value line. An optional "export " prefix is ignored.
func lineKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	before, _, found := strings.Cut(trimmed, "=")
	if !found {
		return "", false
	}
	key := strings.TrimSpace(strings.TrimPrefix(before, "export "))
	if key == "" {
		return "", false
	}
	return key, true
}

// entryEnd returns the index of the last line of the entry starting at lines[start]. A value whose opening
// quote is not closed on its KEY line continues up to the line holding the closing quote. A quote that is
// never closed keeps the entry to its KEY line.
func entryEnd(lines [][]byte, start int) int {
	_, value, _ := strings.Cut(string(lines[start]), "=")
	value = strings.TrimLeft(value, " \t")
	if value == "" || (value[0] != '"' && value[0] != '\'') {
		return start
	}
	quote := value[0]
	if closesQuote(value[1:], quote) {
		return start
	}
	for j := start + 1; j < len(lines); j++ {
		if closesQuote(string(lines[j]), quote) {
			return j
		}
	}
	return start
}

// closesQuote reports whether s holds quote not escaped by a backslash, the rule godotenv parses by.
func closesQuote(s string, quote byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == quote && (i == 0 || s[i-1] != '\\') {
			return true
		}
	}
	return false
}

func lineEnding(line []byte) string {
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		return "\r\n"
	default:
		return "\n"
	}
}

// renderLine writes plain KEY=value when the value survives dotenv parsing untouched, and falls back to
// godotenv's double-quoted form otherwise.
func renderLine(key, value string) string {
	if isPlain(value) {
		return key + "=" + value
	}
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return key + "=" + value
	}
	return line
}

func isPlain(v string) bool {
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_-.:/@+=,%~", r):
		default:
			return false
		}
	}
	return true
}
