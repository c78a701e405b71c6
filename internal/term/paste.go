package term

import "strings"

// SplitPaste breaks pasted text into complete lines to submit and a trailing
// fragment to leave in the input field.
func SplitPaste(content string) (lines []string, rest string) {
	if content == "" {
		return nil, ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	parts := strings.Split(content, "\n")
	return parts[:len(parts)-1], parts[len(parts)-1]
}
