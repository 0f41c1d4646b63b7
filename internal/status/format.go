package status

import "strings"

// maxDescriptionDepth bounds recursion over the description component
// tree (spec §9: "cap recursion depth... to bound stack use").
const maxDescriptionDepth = 32

// OptOutSentinel is the literal legacy-formatting sequence a server
// operator places in their MOTD to request removal from the index
// (spec §4.3/§9).
const OptOutSentinel = "§b§d§f§d§b"

// colorCodes maps a component's "color" field to its single-character
// legacy section-sign code (spec §4.3).
var colorCodes = map[string]byte{
	"black":        '0',
	"dark_blue":    '1',
	"dark_green":   '2',
	"dark_aqua":    '3',
	"dark_red":     '4',
	"dark_purple":  '5',
	"purple":       '5',
	"gold":         '6',
	"gray":         '7',
	"grey":         '7',
	"dark_gray":    '8',
	"dark_grey":    '8',
	"blue":         '9',
	"green":        'a',
	"aqua":         'b',
	"red":          'c',
	"pink":         'd',
	"light_purple": 'd',
	"yellow":       'e',
	"white":        'f',
	"reset":        'r',
}

// styleKeys lists the boolean style fields in the fixed emission order
// required by spec §4.3, each paired with its legacy code.
var styleKeys = []struct {
	key  string
	code byte
}{
	{"obfuscated", 'k'},
	{"bold", 'l'},
	{"strikethrough", 'm'},
	{"underline", 'n'},
	{"italic", 'o'},
}

// BuildFormattedDescription renders a description value (string, array,
// or component object) to a flat string carrying legacy `§`-prefixed
// color/style markers, per spec §4.3's recursive rules. The ordering
// constraint — styles, then color, then text, then extra — is
// load-bearing: some MOTD generators place "extra" ahead of "text" in
// source order, and a naive field-order walk would misplace the text.
func BuildFormattedDescription(desc any) string {
	var b strings.Builder
	renderComponent(&b, desc, 0)
	return b.String()
}

func renderComponent(b *strings.Builder, desc any, depth int) {
	if depth > maxDescriptionDepth {
		return
	}
	switch v := desc.(type) {
	case string:
		b.WriteString(v)
	case []any:
		for _, item := range v {
			renderComponent(b, item, depth+1)
		}
	case map[string]any:
		renderObjectComponent(b, v, depth)
	}
}

const sectionSign = '§'

func writeLegacyCode(b *strings.Builder, code byte) {
	b.WriteRune(sectionSign)
	b.WriteByte(code)
}

func renderObjectComponent(b *strings.Builder, obj map[string]any, depth int) {
	for _, sk := range styleKeys {
		if truthy, ok := obj[sk.key].(bool); ok && truthy {
			writeLegacyCode(b, sk.code)
		}
	}

	if colorRaw, ok := obj["color"]; ok {
		if colorName, ok := colorRaw.(string); ok {
			code, known := colorCodes[colorName]
			if !known {
				code = 'r'
			}
			writeLegacyCode(b, code)
		}
	}

	if text, ok := obj["text"].(string); ok {
		b.WriteString(text)
	}

	if extra, ok := obj["extra"]; ok {
		renderComponent(b, extra, depth+1)
	}
}

// IsOptOut reports whether a server's formatted description carries the
// opt-out sentinel anywhere within it (spec §4.3).
func IsOptOut(formatted string) bool {
	return strings.Contains(formatted, OptOutSentinel)
}
