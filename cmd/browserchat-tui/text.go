package main

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks lines at word boundaries so no line exceeds width cells.
// Words wider than width are hard-split.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		indent := leadingSpace(line)
		words := strings.Fields(line)
		if len(words) == 0 {
			wrapped = append(wrapped, "")
			continue
		}
		current := indent
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if strings.TrimSpace(current) != "" {
					wrapped = append(wrapped, current)
					current = indent
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				wrapped = append(wrapped, head)
				word = word[len(head):]
			}
			if word == "" {
				continue
			}
			switch {
			case strings.TrimSpace(current) == "":
				current += word
			case runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width:
				current += " " + word
			default:
				wrapped = append(wrapped, current)
				current = indent + word
			}
		}
		if strings.TrimSpace(current) != "" {
			wrapped = append(wrapped, current)
		}
	}
	return strings.Join(wrapped, "\n")
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " "))]
}

// truncate cuts text to limit display cells, marking the cut with "...".
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= limit {
		return text
	}
	if limit <= 3 {
		return runewidth.Truncate(text, limit, "")
	}
	return runewidth.Truncate(text, limit, "...")
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

// looksLikeJSON reports whether text is an indented JSON document as
// produced for structured results.
func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	return (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"))
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func ternary[T any](condition bool, whenTrue T, whenFalse T) T {
	if condition {
		return whenTrue
	}
	return whenFalse
}
