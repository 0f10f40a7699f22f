package ai

import "sync"

const tableBits = 18

type bound uint8

const (
	boundNone bound = iota
	boundExact
	boundLower
	boundUpper
)

type entry struct {
	player   uint64
	opponent uint64
	score    int32
	depth    int8
	best     int8
	bound    bound
}

// table is a fixed-size transposition table. Colliding entries are replaced when the new one is searched at least as deep.
type table struct {
	entries []entry
	mask    uint64
}

func newTable(bits uint) *table {
	size := uint64(1) << bits
	return &table{
		entries: make([]entry, size),
		mask:    size - 1,
	}
}

// hash mixes both bitboards with the splitmix64 finalizer.
func hash(player, opponent uint64) uint64 {
	x := player*0x9e3779b97f4a7c15 ^ (opponent + 0x632be59bd9b4e019)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func (t *table) lookup(player, opponent uint64) (entry, bool) {
	e := t.entries[hash(player, opponent)&t.mask]
	if e.bound == boundNone || e.player != player || e.opponent != opponent {
		return entry{}, false
	}
	return e, true
}

func (t *table) store(player, opponent uint64, depth, score, best int, b bound) {
	slot := &t.entries[hash(player, opponent)&t.mask]
	if slot.bound != boundNone && int(slot.depth) > depth && (slot.player != player || slot.opponent != opponent) {
		return
	}

	*slot = entry{
		player:   player,
		opponent: opponent,
		score:    int32(score),
		depth:    int8(depth),
		best:     int8(best),
		bound:    b,
	}
}

func (t *table) clear() {
	clear(t.entries)
}

// tablePool hands out cleared tables, one per running search.
type tablePool struct {
	pool sync.Pool
}

func newTablePool() *tablePool {
	return &tablePool{
		pool: sync.Pool{
			New: func() any { return newTable(tableBits) },
		},
	}
}

func (p *tablePool) get() *table {
	t := p.pool.Get().(*table) //nolint:forcetypeassert
	t.clear()
	return t
}

func (p *tablePool) put(t *table) {
	p.pool.Put(t)
}
