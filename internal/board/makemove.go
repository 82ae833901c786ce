package board

// ApplyMove plays the piece on from to the square to. The move is not
// checked for legality. Promotion, castling and en passant are recognised
// from the moving piece and the shape of the move. An empty from square
// makes the call a no-op.
func (p *Position) ApplyMove(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}

	us := piece.Color()
	pt := piece.Type()

	p.EnPassant = NoSquare
	if pt == Pawn && (to-from == 16 || from-to == 16) {
		p.EnPassant = (from + to) / 2
	}

	p.CastlingRights &^= castleRightsLost[from] | castleRightsLost[to]

	captured := p.removePiece(to)
	if captured == NoPiece {
		switch {
		case pt == King && (to-from == 2 || from-to == 2):
			rookFrom, rookTo := castleRookSquares(to)
			p.movePiece(rookFrom, rookTo)
		case pt == Pawn && from.File() != to.File():
			victim := to - 8
			if us == Black {
				victim = to + 8
			}
			captured = p.removePiece(victim)
		}
	}

	p.removePiece(from)
	if pt == Pawn && to.RelativeRank(us) == 7 {
		p.setPiece(NewPiece(Queen, us), to)
	} else {
		p.setPiece(piece, to)
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if p.SideToMove == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = p.SideToMove.Other()
}

// Apply plays m on the position.
func (p *Position) Apply(m Move) {
	p.ApplyMove(m.From(), m.To())
}

// castleRookSquares returns where the rook starts and ends for a castling
// king landing on kingTo.
func castleRookSquares(kingTo Square) (Square, Square) {
	rank := kingTo.Rank()
	if kingTo.File() == 6 {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}
