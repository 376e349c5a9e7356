// Package cardset loads flashcard sets from tab-separated files.
package cardset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/tuicards/internal/model"
)

// Extension is the file suffix for card set files.
const Extension = ".tsv"

// LoadSet reads one card per line from the provided file path. Each line is
// "front<TAB>back"; blank lines and lines starting with '#' are skipped.
// The file base name is the set id and the front text is the card id, so
// duplicate fronts are an error.
func LoadSet(path string) (model.FlashcardSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.FlashcardSet{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only set file.
			_ = cerr
		}
	}()

	set := model.FlashcardSet{ID: SetID(path)}
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		front, back, ok := strings.Cut(line, "\t")
		if !ok {
			return model.FlashcardSet{}, fmt.Errorf("%s:%d: expected front<TAB>back", path, lineNo)
		}
		front = strings.TrimSpace(front)
		back = strings.TrimSpace(back)
		if front == "" || back == "" {
			return model.FlashcardSet{}, fmt.Errorf("%s:%d: empty front or back", path, lineNo)
		}
		if _, dup := seen[front]; dup {
			return model.FlashcardSet{}, fmt.Errorf("%s:%d: duplicate card %q", path, lineNo, front)
		}
		seen[front] = struct{}{}
		set.Cards = append(set.Cards, model.Card{ID: front, Front: front, Back: back})
	}
	if err := scanner.Err(); err != nil {
		return model.FlashcardSet{}, err
	}
	if len(set.Cards) == 0 {
		return model.FlashcardSet{}, fmt.Errorf("card set is empty")
	}
	return set, nil
}

// SetID derives the set id from a file path.
func SetID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Extension)
}

// SetPath builds the file path for a set id inside the sets directory.
func SetPath(dir, id string) string {
	return filepath.Join(dir, id+Extension)
}

// ListSets returns the sorted ids of all set files in the directory.
func ListSets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, Extension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, Extension))
	}
	sort.Strings(ids)
	return ids, nil
}
