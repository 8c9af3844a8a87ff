package voicecmd

import (
	"fmt"
	"testing"
)

func sq(s string) Square { return Square{File: s[0], Rank: s[1]} }

func TestParseCompactAllSquares(t *testing.T) {
	files := "abcdefgh"
	ranks := "12345678"
	for _, f1 := range files {
		for _, r1 := range ranks {
			for _, f2 := range []rune{'a', 'h', 'e'} {
				for _, r2 := range []rune{'1', '4', '8'} {
					want := Move(Square{byte(f1), byte(r1)}, Square{byte(f2), byte(r2)})
					for _, promo := range []string{"", "q", "r", "b", "n"} {
						text := fmt.Sprintf("%c%c%c%c%s", f1, r1, f2, r2, promo)
						got, ok := Parse(text)
						if !ok || got != want {
							t.Fatalf("Parse(%q) = %v,%v; want %v", text, got, ok, want)
						}
					}
				}
			}
		}
	}
}

func TestParse(t *testing.T) {
	e2e4 := Move(sq("e2"), sq("e4"))
	cases := []struct {
		text string
		want Command
		ok   bool
	}{
		{"e2 to e4", e2e4, true},
		{"e2e4", e2e4, true},
		{"E2E4", e2e4, true},
		{"e 2 two e 4", e2e4, true},
		{"e 2 to e 4", e2e4, true},
		{"e2 too e4", e2e4, true},
		{"pawn e2 e4", e2e4, true},
		{"e two to e four", e2e4, true},
		{"move e two e four", e2e4, true},
		{"move e two e for", e2e4, true},
		{"move etwo efour", e2e4, true},
		{"Move E2 E4", e2e4, true},
		{"knight g1 to f3", Move(sq("g1"), sq("f3")), true},
		{"e2 to e4.", e2e4, true},
		{"e2 to e4 please", e2e4, true},
		{"e2 to e45", Command{}, false},
		{"new game", NewGame(), true},
		{"New   Game please", NewGame(), true},
		{"reset", NewGame(), true},
		{"undo", Undo(), true},
		{"take back", Undo(), true},
		{"please take  back that", Undo(), true},
		{"castle", Castle(Kingside), true},
		{"castle kingside", Castle(Kingside), true},
		{"castling short", Castle(Kingside), true},
		{"castle queenside", Castle(Queenside), true},
		{"castle long", Castle(Queenside), true},
		{"Castling Queen side", Castle(Queenside), true},
		{"banana", Command{}, false},
		{"", Command{}, false},
		{"   ", Command{}, false},
		{"e9 to e4", Command{}, false},
		{"i2 to i4", Command{}, false},
		{"move e2", Command{}, false},
		{"move banana split", Command{}, false},
		{"resetting", Command{}, false},
	}
	for _, c := range cases {
		got, ok := Parse(c.text)
		if ok != c.ok || got != c.want {
			t.Fatalf("Parse(%q) = %v,%v; want %v,%v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestParseOrderLifecycleBeforeCastle(t *testing.T) {
	// both keywords present: lifecycle wins
	got, ok := Parse("reset and castle")
	if !ok || got.Kind != KindNewGame {
		t.Fatalf("expected new game, got %v,%v", got, ok)
	}
	got, ok = Parse("undo the castle")
	if !ok || got.Kind != KindUndo {
		t.Fatalf("expected undo, got %v,%v", got, ok)
	}
}

func TestNormalizeSquare(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"e4", "e4", true},
		{"E4", "e4", true},
		{"eone", "e1", true},
		{"atwo", "a2", true},
		{"cthree", "c3", true},
		{"dfour", "d4", true},
		{"dfor", "d4", true},
		{"ffive", "f5", true},
		{"gsix", "g6", true},
		{"hseven", "h7", true},
		{"beight", "b8", true},
		{"  h8 ", "h8", true},
		{"e9", "", false},
		{"i4", "", false},
		{"enine", "", false},
		{"e", "", false},
		{"", "", false},
		{"efourth", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeSquare(c.in)
		if ok != c.ok {
			t.Fatalf("NormalizeSquare(%q) ok=%v; want %v", c.in, ok, c.ok)
		}
		if ok && got.String() != c.want {
			t.Fatalf("NormalizeSquare(%q) = %s; want %s", c.in, got, c.want)
		}
	}
}

func TestMatchersIndependently(t *testing.T) {
	if _, ok := matchCompact("e2 to e4 now"); ok {
		t.Fatalf("compact form must match the whole transcript")
	}
	if _, ok := matchNatural("e2 to e4 now"); !ok {
		t.Fatalf("natural form should match inside a sentence")
	}
	if _, ok := matchMoveWords("e2 e4"); ok {
		t.Fatalf("move-word form requires the move keyword")
	}
	if cmd, ok := matchCastle("long castle"); !ok || cmd.Side != Queenside {
		t.Fatalf("castle long: got %v,%v", cmd, ok)
	}
}

func TestCommandString(t *testing.T) {
	if s := Move(sq("e2"), sq("e4")).String(); s != "move e2e4" {
		t.Fatalf("unexpected %q", s)
	}
	if s := Castle(Queenside).String(); s != "castle queenside" {
		t.Fatalf("unexpected %q", s)
	}
	if s := Undo().String(); s != "undo" {
		t.Fatalf("unexpected %q", s)
	}
}
