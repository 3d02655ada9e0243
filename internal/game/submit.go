// internal/game/submit.go
//
// Submission flow: decide whether a finished grid wins.
//
// Rules, in order:
//   - Every tile must be on the grid.
//   - At least one word must be present; otherwise the validator is not called.
//   - Every extracted word is checked concurrently and all answers are
//     gathered before deciding. A validator error fails open for words of
//     MinWordLen letters or more.
//   - Any rejected word keeps the session going; otherwise it ends as a win.
package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrNotActive is returned when a submission arrives for a session that is
// not started, paused or already ended.
var ErrNotActive = errors.New("game not active")

// Validator answers whether word is in the dictionary. Implementations may
// be unreliable; errors are treated leniently by Submit.
type Validator interface {
	IsWord(ctx context.Context, word string) (bool, error)
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(ctx context.Context, word string) (bool, error)

// IsWord calls f.
func (f ValidatorFunc) IsWord(ctx context.Context, word string) (bool, error) {
	return f(ctx, word)
}

// Reason explains why a submission was rejected.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonTilesRemaining Reason = "tiles_remaining"
	ReasonNoWords        Reason = "no_words"
	ReasonInvalidWords   Reason = "invalid_words"
)

// Verdict is the outcome of a submission.
type Verdict struct {
	Accepted  bool     `json:"accepted"`
	Reason    Reason   `json:"reason,omitempty"`
	Remaining int      `json:"remaining,omitempty"` // unplaced tiles, for ReasonTilesRemaining
	Words     []string `json:"words,omitempty"`     // every extracted word, scan order
	Invalid   []string `json:"invalid,omitempty"`   // rejected words, scan order, no repeats
}

// Submit checks s against v and, on success, ends the session as a win at
// time at. Rejections return s unchanged with the reason in the Verdict.
func Submit(ctx context.Context, s State, v Validator, at time.Time) (State, Verdict, error) {
	if !s.active() {
		return s, Verdict{}, ErrNotActive
	}
	if n := s.Remaining(); n > 0 {
		return s, Verdict{Reason: ReasonTilesRemaining, Remaining: n}, nil
	}
	texts := WordTexts(ExtractWords(s.Grid))
	if len(texts) == 0 {
		return s, Verdict{Reason: ReasonNoWords}, nil
	}

	unique := lo.Uniq(texts)
	valid := make([]bool, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range unique {
		i, w := i, w
		g.Go(func() error {
			ok, err := v.IsWord(gctx, strings.ToLower(w))
			if err != nil {
				ok = len(w) >= MinWordLen
			}
			valid[i] = ok
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return s, Verdict{}, err
	}

	var invalid []string
	for i, w := range unique {
		if !valid[i] {
			invalid = append(invalid, w)
		}
	}
	if len(invalid) > 0 {
		return s, Verdict{Reason: ReasonInvalidWords, Words: texts, Invalid: invalid}, nil
	}
	return Apply(s, End{Won: true, At: at}), Verdict{Accepted: true, Words: texts}, nil
}
