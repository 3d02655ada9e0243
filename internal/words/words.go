// internal/words/words.go
//
// The dictionary submitted grids are checked against.
//
// Source, decided once by Init:
//   1. WORDS_FILE=/path/to/words.txt, one word per line, # for comments.
//   2. Otherwise the list embedded in assets/dictionary.txt.
//
// Entries are lowercased; anything that is not 2+ ASCII letters is dropped.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/robalobadob/lettergrid/apps/go-server/assets"
)

const minLen = 2

// Dictionary is a set of lowercase words.
type Dictionary map[string]struct{}

// NewDictionary builds a Dictionary from raw entries.
func NewDictionary(list []string) Dictionary {
	return lo.Associate(normalize(list), func(w string) (string, struct{}) {
		return w, struct{}{}
	})
}

// ReadDictionary reads one entry per line from r.
func ReadDictionary(r io.Reader) (Dictionary, error) {
	var list []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := sc.Text(); !strings.HasPrefix(strings.TrimSpace(line), "#") {
			list = append(list, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewDictionary(list), nil
}

// Has reports whether w is in d, ignoring case and surrounding space.
func (d Dictionary) Has(w string) bool {
	_, ok := d[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

var (
	initOnce sync.Once
	loaded   Dictionary
	initErr  error
)

// Init loads the process-wide dictionary exactly once.
func Init() error {
	initOnce.Do(func() {
		loaded, initErr = load()
		if initErr == nil && len(loaded) == 0 {
			initErr = errors.New("words: dictionary is empty")
		}
	})
	return initErr
}

func load() (Dictionary, error) {
	path := os.Getenv("WORDS_FILE")
	if path == "" {
		return NewDictionary(assets.DictionaryList()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}
	defer f.Close()
	return ReadDictionary(f)
}

// normalize lowercases and trims, keeping only alphabetic words of minLen+.
func normalize(list []string) []string {
	return lo.FilterMap(list, func(line string, _ int) (string, bool) {
		w := strings.ToLower(strings.TrimSpace(line))
		return w, len(w) >= minLen && isAlpha(w)
	})
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// IsWord reports whether w is in the loaded dictionary.
// It returns false until Init has succeeded.
func IsWord(w string) bool { return loaded.Has(w) }

// Stats returns the number of loaded words.
func Stats() int { return len(loaded) }
