// internal/scraper/state.go
//
// Structured-data extraction. The catalog site embeds its client
// application state as a JSON blob assigned to a window global inside
// a script tag. Parsing that blob is the most reliable extraction
// layer; everything in here degrades to "not found" rather than
// erroring, because the payload shape is not a contract.
package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stateMarker is the global-state assignment the site's client
// framework emits.
const stateMarker = "window.__NUXT__="

// maxTrimIterations bounds the truncate-and-retry parse loop so
// malformed payloads cannot spin it unboundedly.
const maxTrimIterations = 512

// State is the parsed application state payload.
type State map[string]interface{}

// Record is one nested object inside the state, typically a video
// entry. Accessors tolerate absent keys and wrong types.
type Record map[string]interface{}

// ExtractState scans script blocks for the state assignment and parses
// the trailing JSON expression. Returns (nil, false) on any failure;
// it never propagates a parse error.
func ExtractState(doc *goquery.Document) (State, bool) {
	if doc == nil {
		return nil, false
	}

	var state State
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, stateMarker)
		if idx < 0 {
			return true
		}
		if parsed, ok := parseStatePayload(text[idx+len(stateMarker):]); ok {
			state = parsed
			return false
		}
		return true
	})

	return state, state != nil
}

// parseStatePayload attempts a strict parse first, then a bounded
// truncate-and-retry loop: the tail is right-trimmed until it ends at
// a parseable terminator (']', '}', '"' or a digit) and the parse is
// retried. The assignment expression often carries trailing script
// text the JSON decoder chokes on.
func parseStatePayload(raw string) (State, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")

	for i := 0; i < maxTrimIterations && raw != ""; i++ {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return State(m), true
		}
		raw = trimToTerminator(raw[:len(raw)-1])
	}
	return nil, false
}

// trimToTerminator drops trailing characters until the string ends at
// a character that can close a JSON value.
func trimToTerminator(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		switch {
		case r == ']' || r == '}' || r == '"':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}

// Lookup walks a nested map path inside the state.
func (s State) Lookup(path ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(s)
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CurrentVideo finds the "current video" record. The payload nests
// route data under "data" (a list of per-route objects) and sometimes
// a "state" object; whichever holds a "video" key wins.
func (s State) CurrentVideo() (Record, bool) {
	if v, ok := s.Lookup("state", "video"); ok {
		if rec, ok := asRecord(v); ok {
			return rec, true
		}
	}

	data, ok := s["data"]
	if !ok {
		return nil, false
	}
	entries, ok := data.([]interface{})
	if !ok {
		// Single-object form.
		if m, ok := asRecord(data); ok {
			if rec, ok := recordField(m, "video"); ok {
				return rec, true
			}
		}
		return nil, false
	}
	for _, entry := range entries {
		m, ok := asRecord(entry)
		if !ok {
			continue
		}
		if rec, ok := recordField(m, "video"); ok {
			return rec, true
		}
	}
	return nil, false
}

// VideoByID looks up an entry in the videos collection keyed by id.
func (s State) VideoByID(id string) (Record, bool) {
	for _, path := range [][]string{{"state", "videos"}, {"videos"}} {
		v, ok := s.Lookup(path...)
		if !ok {
			continue
		}
		coll, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if rec, ok := asRecord(coll[id]); ok {
			return rec, true
		}
	}
	return nil, false
}

// Str returns the first non-empty string value among the given keys.
func (r Record) Str(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}

// StrList returns a list of strings for the first present key. List
// entries may be plain strings or objects carrying a name-like field.
func (r Record) StrList(keys ...string) []string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		items, ok := v.([]interface{})
		if !ok {
			continue
		}
		var out []string
		for _, item := range items {
			switch t := item.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out = append(out, s)
				}
			case map[string]interface{}:
				if s, ok := Record(t).Str("name", "title", "image", "url"); ok {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// NestedStr resolves a key that may hold either a plain string or an
// object with a name-like field ("studio" is sometimes {"name": ...}).
func (r Record) NestedStr(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, true
			}
		case map[string]interface{}:
			if s, ok := Record(t).Str("name", "title"); ok {
				return s, true
			}
		}
	}
	return "", false
}

func asRecord(v interface{}) (Record, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false
	}
	return Record(m), true
}

func recordField(r Record, key string) (Record, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	return asRecord(v)
}
