// internal/letters/letters.go
//
// Letter distribution for dealing racks and trade draws.
//
// Modes:
//   - daily:    seeded shuffle of the frequency table; the seed depends only on
//               the UTC date (and the server salt), so every player gets the
//               same 16 letters on the same day.
//   - random:   the same table shuffled with a non-reproducible CSPRNG.
//   - tutorial: a fixed literal rack.
//
// A Bag keeps the rest of the shuffled table after the deal so trades draw
// from the same distribution, in a reproducible order for daily sessions.
package letters

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"lukechampine.com/frand"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/daily"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
)

// ErrBagEmpty is returned when a draw asks for more letters than remain.
var ErrBagEmpty = errors.New("letters: bag is empty")

// frequency is the 144-tile table, in alphabetical order.
var frequency = [26]int{
	13, 3, 3, 6, 18, 3, 4, 3, 12, 2, 2, 5, 3, // A–M
	8, 11, 3, 2, 9, 6, 9, 6, 3, 3, 2, 3, 2, // N–Z
}

// Tutorial is the fixed rack for the tutorial: GAME, WORD, TILES, PLY.
var Tutorial = []string{
	"G", "A", "M", "E",
	"W", "O", "R", "D",
	"T", "I", "L", "E", "S",
	"P", "L", "Y",
}

// tutorialSeed orders the tutorial's trade draws.
const tutorialSeed = 1

// Table returns one letter per tile of the frequency table, A first.
func Table() []string {
	out := make([]string, 0, 144)
	for i, n := range frequency {
		l := string(rune('A' + i))
		for j := 0; j < n; j++ {
			out = append(out, l)
		}
	}
	return out
}

// Bag is the ordered supply of letters for one session.
// It is safe for concurrent use.
type Bag struct {
	mu      sync.Mutex
	letters []string
	next    int
}

// NewBag shuffles the table for mode. now and salt only matter for daily.
// Unknown modes get a random bag.
func NewBag(mode game.Phase, now time.Time, salt string) *Bag {
	tbl := Table()
	switch mode {
	case game.PhaseDaily:
		rng := rand.New(rand.NewSource(daily.Seed(now, salt)))
		rng.Shuffle(len(tbl), func(i, j int) { tbl[i], tbl[j] = tbl[j], tbl[i] })
	case game.PhaseTutorial:
		rng := rand.New(rand.NewSource(tutorialSeed))
		rng.Shuffle(len(tbl), func(i, j int) { tbl[i], tbl[j] = tbl[j], tbl[i] })
		tbl = append(append([]string{}, Tutorial...), tbl...)
	default:
		frand.Shuffle(len(tbl), func(i, j int) { tbl[i], tbl[j] = tbl[j], tbl[i] })
	}
	return &Bag{letters: tbl}
}

// Draw takes the next n letters from the bag.
func (b *Bag) Draw(n int) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || b.next+n > len(b.letters) {
		return nil, ErrBagEmpty
	}
	out := append([]string(nil), b.letters[b.next:b.next+n]...)
	b.next += n
	return out, nil
}

// Left reports how many letters remain.
func (b *Bag) Left() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.letters) - b.next
}

// Deal returns a fresh bag for mode together with the first game.RackSize
// letters drawn from it.
func Deal(mode game.Phase, now time.Time, salt string) ([]string, *Bag) {
	b := NewBag(mode, now, salt)
	rack, _ := b.Draw(game.RackSize)
	return rack, b
}
