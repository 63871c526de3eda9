package settings

import (
	"reflect"
	"testing"
)

func TestParseOptions(t *testing.T) {
	text := `
# comment
voice: alto
speed: 2
pitch: 1.5
ssml: true
:orphan
no colon here
url: http://example.com:8080
empty:
`
	got := ParseOptions(text)
	want := map[string]any{
		"voice": "alto",
		"speed": int64(2),
		"pitch": 1.5,
		"ssml":  true,
		"url":   "http://example.com:8080",
		"empty": "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseOptions = %#v\nwant %#v", got, want)
	}
}

func TestParseOptionsKeepsWordsAsStrings(t *testing.T) {
	got := ParseOptions("answer: yes\nmode: off")
	if got["answer"] != "yes" || got["mode"] != "off" {
		t.Fatalf("got %#v", got)
	}
}

func TestFormatOptions(t *testing.T) {
	if FormatOptions(nil) != "" {
		t.Fatal("nil options should format empty")
	}
	got := FormatOptions(map[string]any{"voice": "alto", "speed": int64(2), "ssml": true})
	want := "speed: 2\nssml: true\nvoice: alto"
	if got != want {
		t.Fatalf("FormatOptions = %q, want %q", got, want)
	}
	if back := ParseOptions(got); !reflect.DeepEqual(back, map[string]any{"voice": "alto", "speed": int64(2), "ssml": true}) {
		t.Fatalf("reparse = %#v", back)
	}
}
