// Package words loads the per-language vocabularies that word offers are drawn
// from. A Store is read-only after Load and safe for concurrent readers.
package words

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
)

// Files maps each language to the files merged into its vocabulary.
var Files = map[string][]string{
	"English": {"en_us.txt", "en_gb.txt"},
	"German":  {"de.txt"},
	"French":  {"fr.txt"},
	"Italian": {"it.txt"},
}

type Store struct {
	byLanguage map[string][]string
}

// Load reads every known language file under dir. Missing files are skipped;
// a language with no words falls back to engine.DefaultWords at lookup time.
func Load(dir string, logger *zap.Logger) (*Store, error) {
	s := &Store{byLanguage: make(map[string][]string, len(Files))}
	for lang, names := range Files {
		seen := make(map[string]struct{})
		var list []string
		for _, name := range names {
			path := filepath.Join(dir, name)
			words, err := readFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("word list missing", zap.String("language", lang), zap.String("path", path))
				continue
			}
			if err != nil {
				return nil, err
			}
			for _, w := range words {
				if _, dup := seen[w]; dup {
					continue
				}
				seen[w] = struct{}{}
				list = append(list, w)
			}
		}
		if len(list) > 0 {
			s.byLanguage[lang] = list
		}
		logger.Info("word list loaded", zap.String("language", lang), zap.Int("words", len(list)))
	}
	return s, nil
}

// FromMap builds a Store from in-memory lists.
func FromMap(m map[string][]string) *Store {
	s := &Store{byLanguage: make(map[string][]string, len(m))}
	for lang, list := range m {
		s.byLanguage[lang] = append([]string(nil), list...)
	}
	return s
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// Words returns the vocabulary for language, or the built-in default list.
// The returned slice must not be modified.
func (s *Store) Words(language string) []string {
	if s != nil {
		if list, ok := s.byLanguage[language]; ok && len(list) > 0 {
			return list
		}
	}
	return engine.DefaultWords
}

func (s *Store) Languages() []string {
	out := make([]string, 0, len(s.byLanguage))
	for lang := range s.byLanguage {
		out = append(out, lang)
	}
	return out
}
