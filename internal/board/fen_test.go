package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2",
		"8/8/4k3/8/8/4K3/8/R7 b - - 12 40",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("ToFEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ1BNR w kq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNRR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 extra",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestParseFENEnPassant(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		ok   bool
	}{
		{"white to move", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", true},
		{"black to move", "4k3/8/8/8/3Pp3/8/8/4K3 b - d3 0 1", true},
		{"wrong rank", "4k3/8/8/8/8/3N4/2P5/4K3 w - d3 0 1", false},
		{"rank of the other side", "4k3/8/8/3pP3/8/8/8/4K3 b - d6 0 2", false},
		{"occupied", "4k3/8/3n4/3pP3/8/8/8/4K3 w - d6 0 2", false},
		{"no pawn in front", "4k3/8/8/4P3/8/8/8/4K3 w - d6 0 2", false},
		{"own pawn in front", "4k3/8/8/3PP3/8/8/8/4K3 w - d6 0 2", false},
		{"not a square", "4k3/8/8/3pP3/8/8/8/4K3 w - d9 0 2", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if !tc.ok {
				if !errors.Is(err, ErrInvalidFEN) {
					t.Errorf("ParseFEN() = %v, want ErrInvalidFEN", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFEN(): %v", err)
			}
			if pos.EnPassant == NoSquare {
				t.Error("en passant square dropped")
			}
		})
	}
}

func TestPositions(t *testing.T) {
	placements := NewPosition().Positions()
	if len(placements) != 32 {
		t.Fatalf("len(Positions()) = %d, want 32", len(placements))
	}
	first := placements[0]
	if first.Color != White || first.Type != Pawn || first.Square != A2 {
		t.Errorf("first placement = %+v, want white pawn on a2", first)
	}
	last := placements[len(placements)-1]
	if last.Color != Black || last.Type != King || last.Square != E8 {
		t.Errorf("last placement = %+v, want black king on e8", last)
	}
}

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move Move
		want string
	}{
		{StartFEN, NewMove(G1, F3), "Nf3"},
		{StartFEN, NewMove(E2, E4), "e4"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", NewMove(E1, G1), "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", NewMove(E1, C1), "O-O-O"},
		{"4k3/8/8/8/8/8/4K3/R6R w - - 0 1", NewMove(A1, D1), "Rad1"},
		{"7k/8/6K1/8/8/8/8/1Q6 w - - 0 1", NewMove(B1, B8), "Qb8#"},
		{"1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1", NewMove(A7, B8), "axb8=Q+"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.SAN(tc.move); got != tc.want {
				t.Errorf("SAN(%s) = %q, want %q", tc.move, got, tc.want)
			}
			if m, err := ParseSAN(tc.want, pos); err != nil || m != tc.move {
				t.Errorf("ParseSAN(%q) = %s, %v", tc.want, m, err)
			}
		})
	}
}
