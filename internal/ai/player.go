package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/deft-reversi/deft/internal/othello"
)

// MaxLevel is the strongest level. Levels range from 0 to MaxLevel.
const MaxLevel = 7

var (
	ErrNoLegalMove  = errors.New("no legal move")
	ErrInvalidLevel = errors.New("invalid level")
)

type levelSettings struct {
	// depth is the search depth in plies.
	depth int

	// solve is the number of empty squares from which the game is searched to the end.
	solve int

	// topN and margin make weak levels pick one of the best topN moves
	// that score at most margin below the best move.
	topN   int
	margin int
}

var levels = [MaxLevel + 1]levelSettings{
	{depth: 1, solve: 0, topN: 3, margin: 40},
	{depth: 2, solve: 4, topN: 2, margin: 15},
	{depth: 3, solve: 8, topN: 1},
	{depth: 4, solve: 10, topN: 1},
	{depth: 5, solve: 12, topN: 1},
	{depth: 6, solve: 12, topN: 1},
	{depth: 7, solve: 14, topN: 1},
	{depth: 8, solve: 16, topN: 1},
}

// Depth returns the search depth of a level, or 0 if the level is invalid.
func Depth(level int) int {
	if level < 0 || level > MaxLevel {
		return 0
	}
	return levels[level].depth
}

// Result describes the outcome of a search.
type Result struct {
	Move othello.Move `json:"move"`

	// Score is the value of Move for the side to move. It is only an estimate unless Solved is set.
	Score int `json:"score"`

	// Depth is the deepest fully searched depth. It is 0 if no depth completed.
	Depth int `json:"depth"`

	Nodes  uint64 `json:"nodes"`
	Solved bool   `json:"solved"`
}

// Player chooses moves. It is safe for concurrent use.
type Player struct {
	mu  sync.Mutex
	rng *rand.Rand

	nodeBudget uint64
	tables     *tablePool
}

// Option configures a Player.
type Option func(*Player)

// WithRand sets the random source used to break ties and pick moves at weak levels.
func WithRand(rng *rand.Rand) Option {
	return func(p *Player) {
		p.rng = rng
	}
}

// WithSeed is WithRand with a new source seeded with seed.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed))) //nolint:gosec
}

// WithNodeBudget limits the number of nodes of one search. Zero means no limit.
func WithNodeBudget(nodes uint64) Option {
	return func(p *Player) {
		p.nodeBudget = nodes
	}
}

// NewPlayer creates a Player. Without WithRand or WithSeed it uses a time-seeded source.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		tables: newTablePool(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	return p
}

// ChooseMove returns the move color should play on board at level.
// The board is not modified. If ctx is done before the search finishes,
// the best move of the last completed depth is returned.
func (p *Player) ChooseMove(ctx context.Context, board othello.Board, color othello.Color, level int) (othello.Move, error) {
	result, err := p.Analyze(ctx, board, color, level)
	if err != nil {
		return othello.Move{}, err
	}
	return result.Move, nil
}

// Analyze is ChooseMove with search details.
func (p *Player) Analyze(ctx context.Context, board othello.Board, color othello.Color, level int) (Result, error) {
	if level < 0 || level > MaxLevel {
		return Result{}, fmt.Errorf("%w: %d not in 0..%d", ErrInvalidLevel, level, MaxLevel)
	}

	if !othello.IsColor(color) {
		return Result{}, fmt.Errorf("%w: invalid color %d", ErrNoLegalMove, int(color))
	}

	player := board.Discs(color)
	opponent := board.Discs(othello.Opponent(color))

	moves := othello.PlayerMoves(player, opponent)
	if moves == 0 {
		return Result{}, fmt.Errorf("%w for %s", ErrNoLegalMove, color)
	}

	order := orderMoves(moves, -1, nil)

	if len(order) == 1 {
		childPlayer, childOpponent := play(player, opponent, order[0])
		return Result{
			Move:  othello.MoveFromIndex(order[0]),
			Score: -evaluate(childOpponent, childPlayer),
		}, nil
	}

	settings := levels[level]

	depth := settings.depth
	solved := false
	if empties := board.CountEmpties(); empties <= settings.solve {
		depth = empties
		solved = true
	}

	t := p.tables.get()
	defer p.tables.put(t)

	s := &search{
		ctx:    ctx,
		table:  t,
		budget: p.nodeBudget,
	}

	startTime := time.Now()

	var scores []scoredMove
	completed := 0

	for d := 1; d <= depth; d++ {
		if ctx.Err() != nil {
			break
		}

		results := s.root(player, opponent, order, d, settings.margin)
		if results == nil {
			break
		}

		scores = sortScored(results)
		completed = d

		order = order[:0]
		for _, scored := range scores {
			order = append(order, scored.index)
		}
	}

	result := Result{
		Depth:  completed,
		Nodes:  s.nodes,
		Solved: solved && completed == depth,
	}

	if scores == nil {
		result.Move = othello.MoveFromIndex(order[0])
	} else {
		chosen := p.pick(scores, settings)
		result.Move = othello.MoveFromIndex(chosen.index)
		result.Score = chosen.score
	}

	printStats(level, depth, result, time.Since(startTime))

	return result, nil
}

// pick selects a move from scores sorted by descending score.
func (p *Player) pick(scores []scoredMove, settings levelSettings) scoredMove {
	best := scores[0].score

	candidates := make([]scoredMove, 0, len(scores))
	for _, scored := range scores {
		if scored.score == best || (len(candidates) < settings.topN && scored.score >= best-settings.margin) {
			candidates = append(candidates, scored)
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return candidates[p.rng.Intn(len(candidates))]
}

func printStats(level, targetDepth int, result Result, elapsed time.Duration) {
	nodesPerSecond := 0.0
	if elapsed > 0 {
		nodesPerSecond = float64(result.Nodes) / elapsed.Seconds()
	}

	slog.Debug("ai search",
		"level", level,
		"move", result.Move.String(),
		"score", result.Score,
		"depth", result.Depth,
		"target_depth", targetDepth,
		"solved", result.Solved,
		"nodes", result.Nodes,
		"elapsed", elapsed,
		"nodes_per_second", int64(nodesPerSecond),
	)
}
