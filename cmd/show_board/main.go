package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/othello"
)

func main() {
	boardString := flag.String("board", "", "the board to show, as 32 hex characters")
	turnString := flag.String("turn", "black", "the side to move")
	level := flag.Int("level", -1, "also show the move the AI picks at this level")
	flag.Parse()

	board, err := othello.ParseBoard(*boardString)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	turn, err := othello.ParseColor(*turnString)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Println(strings.Join(board.ASCIIArtLines(othello.LegalMoveMask(board, turn)), "\n"))

	black, white := othello.Score(board)
	fmt.Printf("black: %d, white: %d, to move: %s, evaluation: %d\n", black, white, turn, ai.Evaluate(board, turn))

	if *level < 0 {
		return
	}

	result, err := ai.NewPlayer().Analyze(context.Background(), board, turn, *level)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("level %d plays %s (score %d, depth %d, nodes %d)\n", *level, result.Move, result.Score, result.Depth, result.Nodes)
}
