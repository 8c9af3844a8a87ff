// Package voicecmd turns speech transcripts into chess commands.
//
// Parse is pure: no state, no I/O. Recognizers run words together, hear ranks
// as number words and confuse homophones, so every matcher is lenient about
// spacing and spelling but strict about the board coordinates it accepts.
package voicecmd

import (
	"regexp"
	"strings"
)

// matcher is one parsing strategy. ok=false means "try the next one".
type matcher func(text string) (cmd Command, ok bool)

// matchers run in order; the first hit wins.
var matchers = []matcher{
	matchCompact,
	matchLifecycle,
	matchCastle,
	matchNatural,
	matchMoveWords,
}

// Parse returns the command spoken in text. The second result is false for unrecognized input.
func Parse(text string) (Command, bool) {
	if strings.TrimSpace(text) == "" {
		return Command{}, false
	}
	for _, m := range matchers {
		if cmd, ok := m(text); ok {
			return cmd, true
		}
	}
	return Command{}, false
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// two/too must precede to so that "too" is not left as a stray "o".
	connectorRe = regexp.MustCompile(`two|too|to`)
	compactRe   = regexp.MustCompile(`^([a-h][1-8])([a-h][1-8])[qrbn]?$`)
)

// matchCompact catches UCI-like transcripts such as "e2e4", "e2 to e4" or "e7e8q".
func matchCompact(text string) (Command, bool) {
	s := whitespaceRe.ReplaceAllString(strings.ToLower(text), "")
	s = connectorRe.ReplaceAllString(s, "")
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return Command{}, false
	}
	from, ok1 := NormalizeSquare(m[1])
	to, ok2 := NormalizeSquare(m[2])
	if !ok1 || !ok2 {
		return Command{}, false
	}
	return Move(from, to), true
}

var (
	newGameRe = regexp.MustCompile(`(?i)\bnew\s+game\b|\breset\b`)
	undoRe    = regexp.MustCompile(`(?i)\bundo\b|\btake\s+back\b`)
)

func matchLifecycle(text string) (Command, bool) {
	if newGameRe.MatchString(text) {
		return NewGame(), true
	}
	if undoRe.MatchString(text) {
		return Undo(), true
	}
	return Command{}, false
}

// matchCastle defaults to kingside unless "queen" or "long" is heard.
func matchCastle(text string) (Command, bool) {
	s := strings.ToLower(text)
	if !strings.Contains(s, "castle") && !strings.Contains(s, "castling") {
		return Command{}, false
	}
	if strings.Contains(s, "queen") || strings.Contains(s, "long") {
		return Castle(Queenside), true
	}
	return Castle(Kingside), true
}

const rankToken = `(?:[1-8]|one|two|three|four|for|five|six|seven|eight)`

var naturalRe = regexp.MustCompile(`(?i)\b([a-h]\s*` + rankToken + `)\s*(?:(?:to|two|too)\s*)?([a-h]\s*` + rankToken + `)\b`)

// matchNatural handles "e2 to e4", "e 2 to e 4" and "e four to e five".
func matchNatural(text string) (Command, bool) {
	m := naturalRe.FindStringSubmatch(text)
	if m == nil {
		return Command{}, false
	}
	from, ok := NormalizeSquare(whitespaceRe.ReplaceAllString(m[1], ""))
	if !ok {
		return Command{}, false
	}
	to, ok := NormalizeSquare(whitespaceRe.ReplaceAllString(m[2], ""))
	if !ok {
		return Command{}, false
	}
	return Move(from, to), true
}

// matchMoveWords handles "move e4 e5" and "move e two e four".
func matchMoveWords(text string) (Command, bool) {
	tokens := strings.Fields(strings.ToLower(text))
	idx := -1
	for i, t := range tokens {
		if t == "move" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Command{}, false
	}
	rest := tokens[idx+1:]
	if len(rest) < 2 {
		return Command{}, false
	}
	from, n, ok := squareAt(rest)
	if !ok {
		return Command{}, false
	}
	to, _, ok := squareAt(rest[n:])
	if !ok {
		return Command{}, false
	}
	return Move(from, to), true
}

// squareAt decodes a square from the head of tokens, using one token or a
// file token joined with the following rank word. n is the number consumed.
func squareAt(tokens []string) (sq Square, n int, ok bool) {
	if len(tokens) == 0 {
		return Square{}, 0, false
	}
	if sq, ok := NormalizeSquare(tokens[0]); ok {
		return sq, 1, true
	}
	if len(tokens) >= 2 {
		if sq, ok := NormalizeSquare(tokens[0] + tokens[1]); ok {
			return sq, 2, true
		}
	}
	return Square{}, 0, false
}
