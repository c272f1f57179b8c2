// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want map[string]any
	}{
		{
			name: "json string object",
			raw:  `{"ref": "Genesis 1:1"}`,
			want: map[string]any{"ref": "Genesis 1:1"},
		},
		{
			name: "json string that is not an object",
			raw:  `["a", "b"]`,
			want: map[string]any{},
		},
		{
			name: "malformed json string",
			raw:  `{"ref": `,
			want: map[string]any{},
		},
		{
			name: "raw message",
			raw:  json.RawMessage(`{"title": "Berakhot 2a"}`),
			want: map[string]any{"title": "Berakhot 2a"},
		},
		{
			name: "structured content wins over content blocks",
			raw: map[string]any{
				"structuredContent": map[string]any{"ref": "Exodus 20:8"},
				"content":           []any{map[string]any{"type": "text", "text": `{"ref": "other"}`}},
			},
			want: map[string]any{"ref": "Exodus 20:8"},
		},
		{
			name: "first decodable text block",
			raw: map[string]any{
				"content": []any{
					map[string]any{"type": "image", "text": `{"ref": "skipped"}`},
					map[string]any{"type": "text", "text": "not json"},
					map[string]any{"type": "text", "text": `{"ref": "Shabbat 21b"}`},
					map[string]any{"type": "text", "text": `{"ref": "later"}`},
				},
			},
			want: map[string]any{"ref": "Shabbat 21b"},
		},
		{
			name: "structured content that is not a map falls through",
			raw: map[string]any{
				"structuredContent": "oops",
				"ref":               "Ruth 1:1",
			},
			want: map[string]any{"structuredContent": "oops", "ref": "Ruth 1:1"},
		},
		{
			name: "plain map passes through",
			raw:  map[string]any{"results": []any{}},
			want: map[string]any{"results": []any{}},
		},
		{
			name: "nil",
			raw:  nil,
			want: map[string]any{},
		},
		{
			name: "unsupported scalar",
			raw:  42,
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestDecodeCalendar(t *testing.T) {
	m := map[string]any{
		"schedule": map[string]any{
			"calendar_items": []any{
				map[string]any{
					"ref":          "Menachot 43",
					"title":        map[string]any{"en": "Daf Yomi", "he": "דף יומי"},
					"displayValue": map[string]any{"en": "Menachot 43"},
				},
				map[string]any{
					"ref":          "Psalms 23",
					"displayValue": "Psalms 23",
				},
				"not an item",
			},
		},
	}

	cal := DecodeCalendar(m)
	if assert.Len(t, cal.Items, 2) {
		assert.Equal(t, "Daf Yomi: Menachot 43", cal.Items[0].DisplayTitle())
		assert.Equal(t, "Psalms 23", cal.Items[1].DisplayTitle())
	}
}

func TestDecodeSearchSkipsMalformedItems(t *testing.T) {
	res := DecodeSearch(map[string]any{
		"results": []any{
			map[string]any{"id": "Genesis 1:1|en|Sefaria", "title": "Genesis 1:1"},
			"garbage",
			map[string]any{"title": "Exodus 3:14"},
		},
	})
	if assert.Len(t, res.Results, 2) {
		assert.Equal(t, "Genesis 1:1", res.Results[0].Citation())
		assert.Equal(t, "Exodus 3:14", res.Results[1].Citation())
	}
}

func TestFetchID(t *testing.T) {
	assert.Equal(t, "Genesis 1:1|auto|primary", FetchID(" Genesis 1:1 "))
	assert.Equal(t, "Genesis 1:1|en|Sefaria", FetchID("Genesis 1:1|en|Sefaria"))
}
