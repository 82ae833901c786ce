package board

import (
	"errors"
	"math"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"lukechampine.com/frand"
)

func TestAttackTablesValidate(t *testing.T) {
	if err := Tables().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestSliderAttacksRandomOccupancy(t *testing.T) {
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)

	for sq := A1; sq <= H8; sq++ {
		for i := 0; i < 200; i++ {
			occ := Bitboard(rng.Uint64n(math.MaxUint64) & rng.Uint64n(math.MaxUint64))
			if got, want := RookAttacks(sq, occ), slide(sq, occ, rookDirections, 7); got != want {
				t.Fatalf("RookAttacks(%s, %#x) = %#x, want %#x", sq, uint64(occ), uint64(got), uint64(want))
			}
			if got, want := BishopAttacks(sq, occ), slide(sq, occ, bishopDirections, 7); got != want {
				t.Fatalf("BishopAttacks(%s, %#x) = %#x, want %#x", sq, uint64(occ), uint64(got), uint64(want))
			}
			if got, want := uint64(RookAttacks(sq, occ)), dragontoothmg.CalculateRookMoveBitboard(uint8(sq), uint64(occ)); got != want {
				t.Fatalf("RookAttacks(%s, %#x) = %#x, dragontoothmg says %#x", sq, uint64(occ), got, want)
			}
			if got, want := uint64(BishopAttacks(sq, occ)), dragontoothmg.CalculateBishopMoveBitboard(uint8(sq), uint64(occ)); got != want {
				t.Fatalf("BishopAttacks(%s, %#x) = %#x, dragontoothmg says %#x", sq, uint64(occ), got, want)
			}
		}
	}
}

func TestQueenAttacksIsUnion(t *testing.T) {
	occ := SquareBB(D6) | SquareBB(F4) | SquareBB(B2)
	got := QueenAttacks(D4, occ)
	if want := RookAttacks(D4, occ) | BishopAttacks(D4, occ); got != want {
		t.Errorf("QueenAttacks = %#x, want %#x", uint64(got), uint64(want))
	}
	if got.IsSet(D7) || !got.IsSet(D6) {
		t.Errorf("queen ray should stop at the d6 blocker:\n%s", got)
	}
}

func TestRelevantMaskExcludesEdges(t *testing.T) {
	tests := []struct {
		sq   Square
		dirs []direction
		bits int
	}{
		{A1, rookDirections, 12},
		{D4, rookDirections, 10},
		{A1, bishopDirections, 6},
		{D4, bishopDirections, 9},
		{H8, bishopDirections, 6},
	}
	for _, tc := range tests {
		t.Run(tc.sq.String(), func(t *testing.T) {
			if got := relevantMask(tc.sq, tc.dirs).PopCount(); got != tc.bits {
				t.Errorf("relevantMask(%s) has %d bits, want %d", tc.sq, got, tc.bits)
			}
		})
	}
}

func TestMagicFallbackSearch(t *testing.T) {
	var magics [64]Magic
	var broken [64]uint64 // zero multipliers collide on every square

	rng := frand.NewCustom(magicSeed, 1024, 12)
	table, err := buildSlider(&magics, &broken, bishopDirections, rng)
	if err != nil {
		t.Fatalf("buildSlider: %v", err)
	}

	tables := &AttackTables{bishopMagics: magics, bishopTable: table, rookMagics: Tables().rookMagics, rookTable: Tables().rookTable}
	if err := tables.Validate(); err != nil {
		t.Fatalf("Validate() after fallback = %v", err)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	tables, err := NewAttackTables()
	if err != nil {
		t.Fatal(err)
	}
	tables.rookTable[tables.rookMagics[D4].Offset] ^= SquareBB(H8)

	if err := tables.Validate(); !errors.Is(err, ErrMagicCollision) {
		t.Errorf("Validate() = %v, want ErrMagicCollision", err)
	}
}

func TestLeaperAttacks(t *testing.T) {
	tests := []struct {
		name string
		bb   Bitboard
		want int
	}{
		{"knight a1", KnightAttacks(A1), 2},
		{"knight d4", KnightAttacks(D4), 8},
		{"king a1", KingAttacks(A1), 3},
		{"king e4", KingAttacks(E4), 8},
		{"white pawn a2", PawnAttacks(A2, White), 1},
		{"black pawn e7", PawnAttacks(E7, Black), 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bb.PopCount(); got != tc.want {
				t.Errorf("%s attacks %d squares, want %d", tc.name, got, tc.want)
			}
		})
	}
}
