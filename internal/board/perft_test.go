package board

import (
	"fmt"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		depth    int
		expected uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth%d", tc.depth), func(t *testing.T) {
			if got := pos.Perft(tc.depth); got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftKiwipete tests the famous Kiwipete position with many edge cases.
// No pawn can promote within three plies, so queen-only promotion does not
// change the published counts.
func TestPerftKiwipete(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	tests := []struct {
		depth    int
		expected uint64
	}{
		{1, 48},
		{2, 2039},
		{3, 97862},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth%d", tc.depth), func(t *testing.T) {
			if got := pos.Perft(tc.depth); got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	pos, err := ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	tests := []struct {
		depth    int
		expected uint64
	}{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth%d", tc.depth), func(t *testing.T) {
			if got := pos.Perft(tc.depth); got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftEnPassantPin: black pawn on e4 could capture en passant on d3,
// but that would expose the black king on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	if targets := pos.LegalMovesFrom(E4); len(targets) != 1 || targets[0] != E3 {
		t.Errorf("e4 pawn moves = %v, want only e3", targets)
	}

	tests := []struct {
		depth    int
		expected uint64
	}{
		{1, 6},
		{2, 94},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth%d", tc.depth), func(t *testing.T) {
			if got := pos.Perft(tc.depth); got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	pos := NewPosition()
	var total uint64
	for _, n := range pos.PerftDivide(3) {
		total += n
	}
	if total != 8902 {
		t.Errorf("divide total = %d, want 8902", total)
	}
}

// TestLegalMovesMatchDragontooth walks the move tree of several positions and
// compares every node's legal move set with dragontoothmg, ignoring
// under-promotions.
func TestLegalMovesMatchDragontooth(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
	}{
		{"start", StartFEN, 3},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2},
		{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 2},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 2},
		{"promotions", "8/P1k5/8/8/8/8/5Kp1/8 w - - 0 1", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			oracle := dragontoothmg.ParseFen(tc.fen)
			compareMoveTree(t, pos, &oracle, tc.depth)
		})
	}
}

func compareMoveTree(t *testing.T, pos *Position, oracle *dragontoothmg.Board, depth int) {
	t.Helper()

	want := make(map[Move]bool)
	var oracleMoves []dragontoothmg.Move
	for _, m := range oracle.GenerateLegalMoves() {
		if promo := m.Promote(); promo != dragontoothmg.Nothing && promo != dragontoothmg.Queen {
			continue
		}
		want[NewMove(Square(m.From()), Square(m.To()))] = true
		oracleMoves = append(oracleMoves, m)
	}

	got := pos.GenerateLegalMoves()
	if got.Len() != len(want) {
		t.Fatalf("%s: %d legal moves, dragontoothmg has %d", pos.ToFEN(), got.Len(), len(want))
	}
	for _, m := range got.Slice() {
		if !want[m] {
			t.Fatalf("%s: move %s not legal according to dragontoothmg", pos.ToFEN(), m)
		}
	}

	if depth <= 1 {
		return
	}
	for _, m := range oracleMoves {
		next := *pos
		next.ApplyMove(Square(m.From()), Square(m.To()))
		unapply := oracle.Apply(m)
		compareMoveTree(t, &next, oracle, depth-1)
		unapply()
	}
}
