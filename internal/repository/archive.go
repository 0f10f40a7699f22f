package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/models"
	"github.com/deft-reversi/deft/internal/services"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	archiveStatsKey = "game_stats"

	// noAILevel is the level stored for games between two humans.
	noAILevel = -1

	maxListLimit = 100
)

// ErrNoDatabase is returned when no Postgres database is configured.
var ErrNoDatabase = errors.New("no database configured")

const archiveSchema = `
	CREATE TABLE IF NOT EXISTS games (
		id          UUID PRIMARY KEY,
		session_id  TEXT NOT NULL,
		moves       TEXT[] NOT NULL,
		black       SMALLINT NOT NULL,
		white       SMALLINT NOT NULL,
		winner      SMALLINT NOT NULL,
		ai_enabled  BOOLEAN NOT NULL,
		ai_level    SMALLINT NOT NULL,
		ai_color    SMALLINT NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS games_finished_at_idx ON games (finished_at DESC);
	CREATE INDEX IF NOT EXISTS games_session_id_idx ON games (session_id);
`

// ArchiveRepository stores finished games in Postgres and keeps win statistics in Redis.
type ArchiveRepository struct {
	services *services.Services
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(c *fiber.Ctx) *ArchiveRepository {
	services := c.Locals("services").(*services.Services) //nolint: errcheck

	return &ArchiveRepository{
		services: services,
	}
}

func NewArchiveRepositoryFromServices(services *services.Services) *ArchiveRepository {
	return &ArchiveRepository{
		services: services,
	}
}

// Available checks whether a database is configured.
func (repo *ArchiveRepository) Available() bool {
	return repo.services != nil && repo.services.Postgres != nil
}

// EnsureSchema creates the games table if it does not exist.
func (repo *ArchiveRepository) EnsureSchema(ctx context.Context) error {
	if !repo.Available() {
		return ErrNoDatabase
	}

	if _, err := repo.services.Postgres.ExecContext(ctx, archiveSchema); err != nil {
		return fmt.Errorf("error creating games table: %w", err)
	}

	return nil
}

// archiveID identifies a finished game. Archiving the same game of a session again yields the same id.
func archiveID(sessionID string, snapshot game.Snapshot) string {
	name := sessionID + "|" + snapshot.Start + "|" + strings.Join(snapshot.Moves, " ")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// newArchivedGame builds the archive record of a finished game of a session.
func newArchivedGame(sessionID string, state session.State, finishedAt time.Time) (models.ArchivedGame, error) {
	g, err := game.Restore(state.Game)
	if err != nil {
		return models.ArchivedGame{}, fmt.Errorf("error restoring game: %w", err)
	}

	if !g.IsEndGame() {
		return models.ArchivedGame{}, errors.New("game is not finished")
	}

	black, white := g.Score()

	archived := models.ArchivedGame{
		ID:         archiveID(sessionID, state.Game),
		SessionID:  sessionID,
		Moves:      models.Moves(state.Game.Moves),
		Black:      black,
		White:      white,
		Winner:     int(g.Winner()),
		AIEnabled:  state.AI.Enabled,
		AILevel:    noAILevel,
		FinishedAt: finishedAt,
	}

	if archived.Moves == nil {
		archived.Moves = models.Moves{}
	}

	if state.AI.Enabled {
		archived.AILevel = state.AI.Level
		archived.AIColor = int(state.AI.Color)
	}

	return archived, nil
}

func statsKey(aiLevel, aiColor, winner int) string {
	return fmt.Sprintf("%d:%d:%d", aiLevel, aiColor, winner)
}

// Archive stores a finished game of session id. Archiving the same game twice has no effect.
func (repo *ArchiveRepository) Archive(ctx context.Context, id string, state session.State) error {
	if !repo.Available() {
		return ErrNoDatabase
	}

	archived, err := newArchivedGame(id, state, time.Now())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (id, session_id, moves, black, white, winner, ai_enabled, ai_level, ai_color, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := repo.services.Postgres.ExecContext(ctx, query,
		archived.ID,
		archived.SessionID,
		pq.Array([]string(archived.Moves)),
		archived.Black,
		archived.White,
		archived.Winner,
		archived.AIEnabled,
		archived.AILevel,
		archived.AIColor,
		archived.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("error archiving game: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error archiving game: %w", err)
	}

	if inserted == 0 || repo.services.Redis == nil {
		return nil
	}

	key := statsKey(archived.AILevel, archived.AIColor, archived.Winner)
	return countArchivedGame(ctx, repo.services.Redis, key, repo.buildInitialStats)
}

// statsHash is the part of the Redis client that counts archived games.
type statsHash interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
}

// countArchivedGame adds a newly stored game to the stats hash. A missing hash is rebuilt from the
// database instead, which already holds the new game; incrementing it would leave a partial hash
// that GetStats never rebuilds.
func countArchivedGame(ctx context.Context, hash statsHash, key string, rebuild func(context.Context) error) error {
	exists, err := hash.Exists(ctx, archiveStatsKey).Result()
	if err != nil {
		return fmt.Errorf("error checking Redis stats: %w", err)
	}

	if exists == 0 {
		if err = rebuild(ctx); err != nil {
			return fmt.Errorf("error building initial game stats: %w", err)
		}
		return nil
	}

	if err = hash.HIncrBy(ctx, archiveStatsKey, key, 1).Err(); err != nil {
		return fmt.Errorf("error updating Redis stats: %w", err)
	}

	return nil
}

// ListGames returns archived games, most recently finished first.
func (repo *ArchiveRepository) ListGames(ctx context.Context, limit, offset int) ([]models.ArchivedGame, error) {
	if !repo.Available() {
		return nil, ErrNoDatabase
	}

	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	offset = max(offset, 0)

	query := `
		SELECT id, session_id, moves, black, white, winner, ai_enabled, ai_level, ai_color, finished_at
		FROM games
		ORDER BY finished_at DESC
		LIMIT $1 OFFSET $2
	`

	games := make([]models.ArchivedGame, 0)
	if err := repo.services.Postgres.SelectContext(ctx, &games, query, limit, offset); err != nil {
		return nil, fmt.Errorf("error listing games: %w", err)
	}

	return games, nil
}

func (repo *ArchiveRepository) loadStatsFromDB(ctx context.Context) ([]models.ArchiveStats, error) {
	query := `
		SELECT ai_level, ai_color, winner, count(*) AS count
		FROM games
		GROUP BY ai_level, ai_color, winner
	`

	type statRow struct {
		AILevel int `db:"ai_level"`
		AIColor int `db:"ai_color"`
		Winner  int `db:"winner"`
		Count   int `db:"count"`
	}

	var rows []statRow
	if err := repo.services.Postgres.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error loading game stats: %w", err)
	}

	stats := make([]models.ArchiveStats, len(rows))
	for i, row := range rows {
		stats[i] = models.ArchiveStats(row)
	}

	return stats, nil
}

func (repo *ArchiveRepository) buildInitialStats(ctx context.Context) error {
	stats, err := repo.loadStatsFromDB(ctx)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		return nil
	}

	statsMap := make(map[string]interface{}, len(stats))
	for _, stat := range stats {
		statsMap[statsKey(stat.AILevel, stat.AIColor, stat.Winner)] = stat.Count
	}

	// Store in Redis hash
	if err = repo.services.Redis.HSet(ctx, archiveStatsKey, statsMap).Err(); err != nil {
		return fmt.Errorf("error storing game stats in Redis: %w", err)
	}

	return nil
}

// GetStats returns the number of archived games per AI level, AI color and winner.
func (repo *ArchiveRepository) GetStats(ctx context.Context) ([]models.ArchiveStats, error) {
	if !repo.Available() {
		return nil, ErrNoDatabase
	}

	redisConn := repo.services.Redis
	if redisConn == nil {
		return repo.loadStatsFromDB(ctx)
	}

	stats, err := redisConn.HGetAll(ctx, archiveStatsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting game stats from Redis: %w", err)
	}

	if len(stats) == 0 {
		if err = repo.buildInitialStats(ctx); err != nil {
			return nil, fmt.Errorf("error building initial game stats: %w", err)
		}

		// Try reading from Redis again after building stats
		stats, err = redisConn.HGetAll(ctx, archiveStatsKey).Result()
		if err != nil {
			return nil, fmt.Errorf("error getting game stats from Redis after build: %w", err)
		}
	}

	return parseStats(stats)
}

func parseStats(stats map[string]string) ([]models.ArchiveStats, error) {
	archiveStats := make([]models.ArchiveStats, 0, len(stats))

	for key, value := range stats {
		var stat models.ArchiveStats

		// Parse ai_level:ai_color:winner key
		if _, err := fmt.Sscanf(key, "%d:%d:%d", &stat.AILevel, &stat.AIColor, &stat.Winner); err != nil {
			return nil, fmt.Errorf("error parsing game stats key: %w", err)
		}

		count, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("error parsing game stats value: %w", err)
		}
		stat.Count = count

		archiveStats = append(archiveStats, stat)
	}

	sort.Slice(archiveStats, func(i, j int) bool {
		a, b := archiveStats[i], archiveStats[j]
		if a.AILevel != b.AILevel {
			return a.AILevel < b.AILevel
		}
		if a.AIColor != b.AIColor {
			return a.AIColor < b.AIColor
		}
		return a.Winner < b.Winner
	})

	return archiveStats, nil
}
