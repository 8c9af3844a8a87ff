package voicecmd

import (
	"regexp"
	"strings"
)

var strictSquare = regexp.MustCompile(`(?i)^[a-h][1-8]$`)

// rankWords maps spoken rank words to digits. "for" is a common mis-hearing of "four".
var rankWords = map[string]byte{
	"one":   '1',
	"two":   '2',
	"three": '3',
	"four":  '4',
	"for":   '4',
	"five":  '5',
	"six":   '6',
	"seven": '7',
	"eight": '8',
}

// NormalizeSquare decodes a short token such as "e4", "E4" or "efour" into a Square.
// The second result is false when the token is not a square.
func NormalizeSquare(token string) (Square, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if strictSquare.MatchString(t) {
		return Square{File: t[0], Rank: t[1]}, true
	}
	if len(t) < 2 || t[0] < 'a' || t[0] > 'h' {
		return Square{}, false
	}
	rank, ok := rankWords[t[1:]]
	if !ok {
		return Square{}, false
	}
	return Square{File: t[0], Rank: rank}, true
}
