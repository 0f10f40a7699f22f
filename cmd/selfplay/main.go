package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/config"
	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/othello"
	"gopkg.in/yaml.v3"
)

type gameReport struct {
	Transcript string        `yaml:"transcript"`
	Black      int           `yaml:"black"`
	White      int           `yaml:"white"`
	Winner     string        `yaml:"winner"`
	Duration   time.Duration `yaml:"duration"`
}

type report struct {
	BlackLevel int          `yaml:"black_level"`
	WhiteLevel int          `yaml:"white_level"`
	Seed       int64        `yaml:"seed"`
	BlackWins  int          `yaml:"black_wins"`
	WhiteWins  int          `yaml:"white_wins"`
	Draws      int          `yaml:"draws"`
	Games      []gameReport `yaml:"games"`
}

func (r *report) add(g gameReport) {
	switch g.Winner {
	case othello.Black.String():
		r.BlackWins++
	case othello.White.String():
		r.WhiteWins++
	default:
		r.Draws++
	}
	r.Games = append(r.Games, g)
}

func playGame(ctx context.Context, player *ai.Player, levels map[othello.Color]int, timeout time.Duration) (gameReport, error) {
	g := game.New()
	start := time.Now()

	for !g.IsEndGame() {
		if g.MustPass() {
			if err := g.Pass(); err != nil {
				return gameReport{}, err
			}
			continue
		}

		moveCtx, cancel := context.WithTimeout(ctx, timeout)
		move, err := player.ChooseMove(moveCtx, g.Board(), g.Turn(), levels[g.Turn()])
		cancel()
		if err != nil {
			return gameReport{}, fmt.Errorf("ply %d: %w", g.PlyCount()+1, err)
		}

		if err = g.Put(move); err != nil {
			return gameReport{}, fmt.Errorf("ply %d: %w", g.PlyCount()+1, err)
		}
	}

	black, white := g.Score()

	return gameReport{
		Transcript: g.Transcript(),
		Black:      black,
		White:      white,
		Winner:     g.Winner().String(),
		Duration:   time.Since(start).Round(time.Millisecond),
	}, nil
}

func main() {
	blackLevel := flag.Int("black-level", 0, "AI level playing black")
	whiteLevel := flag.Int("white-level", ai.MaxLevel, "AI level playing white")
	games := flag.Int("games", 1, "number of games")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	timeout := flag.Duration("timeout", config.DefaultAIMoveTimeout, "time limit per move")
	flag.Parse()

	config.SetLogLevel()

	player := ai.NewPlayer(ai.WithSeed(*seed))
	levels := map[othello.Color]int{
		othello.Black: *blackLevel,
		othello.White: *whiteLevel,
	}

	r := report{
		BlackLevel: *blackLevel,
		WhiteLevel: *whiteLevel,
		Seed:       *seed,
	}

	for i := range *games {
		g, err := playGame(context.Background(), player, levels, *timeout)
		if err != nil {
			slog.Error("Game failed", "game", i+1, "error", err)
			os.Exit(1)
		}

		slog.Info("Game finished", "game", i+1, "black", g.Black, "white", g.White, "winner", g.Winner)
		r.add(g)
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)

	if err := encoder.Encode(r); err != nil {
		slog.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
}
