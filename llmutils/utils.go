// Package llmutils provides helpers for cleaning and formatting
// loosely-structured model output before it is parsed or echoed back.
package llmutils

import (
	"bytes"
	"encoding/json"
)

var backtick = []byte("```")

// TrimBackticks removes an enclosing ```json or ``` fence, if present,
// and returns the trimmed content between the first and last markers.
func TrimBackticks(text string) string {
	return string(BytesTrimBackticks([]byte(text)))
}

// BytesTrimBackticks removes ```json or ```
func BytesTrimBackticks(bs []byte) []byte {
	startIndex := bytes.Index(bs, backtick)
	if startIndex == -1 {
		// If the start marker is not found, return the original string directly
		return bs
	}
	startIndex += len(backtick)

	endIndex := bytes.LastIndex(bs, backtick)
	if endIndex <= startIndex {
		return bs
	}

	inner := bs[startIndex:endIndex]
	// skip an optional language tag on the opening fence line
	if nl := bytes.IndexByte(inner, '\n'); nl != -1 {
		firstLine := bytes.TrimSpace(inner[:nl])
		if isLanguageTag(firstLine) {
			inner = inner[nl+1:]
		}
	}
	return bytes.TrimSpace(inner)
}

func isLanguageTag(line []byte) bool {
	if len(line) == 0 {
		return true
	}
	for _, c := range line {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// BackticksJSON wraps the provided JSON in a markdown code fence.
func BackticksJSON(js string) string {
	return "\n```json\n" + js + "\n```\n"
}

// ToJSON returns the compact JSON representation, or an empty string on failure.
func ToJSON(v any) string {
	bs, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bs)
}

// ToJSONIndent returns the indented JSON representation, or an empty string on failure.
func ToJSONIndent(v any) string {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(bs)
}
