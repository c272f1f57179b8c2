// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"encoding/json"
)

// Normalize extracts the structured payload of a tool result.
//
// Accepted shapes, in order: a JSON string (or bytes) decoding to an object;
// an object with a structuredContent object; an object whose content blocks
// include a "text" block holding a JSON object. Any other object is returned
// unchanged. Decode failures yield an empty map.
func Normalize(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}
	case string:
		return decodeObject([]byte(v))
	case []byte:
		return decodeObject(v)
	case json.RawMessage:
		return decodeObject(v)
	case map[string]any:
		return normalizeEnvelope(v)
	default:
		// Typed values (for example SDK result structs) go through their JSON form.
		b, err := json.Marshal(v)
		if err != nil {
			return map[string]any{}
		}
		m := decodeObject(b)
		if len(m) == 0 {
			return m
		}
		return normalizeEnvelope(m)
	}
}

func normalizeEnvelope(m map[string]any) map[string]any {
	if structured, ok := m["structuredContent"].(map[string]any); ok {
		return structured
	}
	if blocks, ok := m["content"].([]any); ok {
		for _, block := range blocks {
			item, ok := block.(map[string]any)
			if !ok || item["type"] != "text" {
				continue
			}
			text, _ := item["text"].(string)
			if text == "" {
				continue
			}
			var decoded map[string]any
			if err := json.Unmarshal([]byte(text), &decoded); err != nil || decoded == nil {
				continue
			}
			return decoded
		}
	}
	return m
}

func decodeObject(b []byte) map[string]any {
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return map[string]any{}
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
