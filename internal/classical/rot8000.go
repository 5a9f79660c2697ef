package classical

import (
	"strings"
	"sync"
)

const bmpSize = 0x10000

// rot8000Toggles lists the code points at which visibility flips. Code points
// below the first toggle are hidden.
var rot8000Toggles = []struct {
	at      rune
	visible bool
}{
	{33, true},
	{127, false},
	{161, true},
	{5760, false},
	{5761, true},
	{8192, false},
	{8203, true},
	{8232, false},
	{8234, true},
	{8239, false},
	{8240, true},
	{8287, false},
	{8288, true},
	{12288, false},
	{12289, true},
	{55296, false},
	{57344, true},
}

// rot8000Table is built on first use and only read afterwards.
var rot8000Table = sync.OnceValue(func() map[rune]rune {
	visible := make([]rune, 0, bmpSize)
	current := false
	next := 0
	for cp := rune(0); cp < bmpSize; cp++ {
		if next < len(rot8000Toggles) && rot8000Toggles[next].at == cp {
			current = rot8000Toggles[next].visible
			next++
		}
		if current {
			visible = append(visible, cp)
		}
	}

	half := len(visible) / 2
	table := make(map[rune]rune, len(visible))
	for i, cp := range visible {
		table[cp] = visible[(i+half)%(half*2)]
	}
	return table
})

// ROT8000 rotates every visible BMP code point by half the visible set.
// Code points outside the set pass through unchanged.
func ROT8000(text string) string {
	table := rot8000Table()
	return strings.Map(func(r rune) rune {
		if rotated, ok := table[r]; ok {
			return rotated
		}
		return r
	}, text)
}
