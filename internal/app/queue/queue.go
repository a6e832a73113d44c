// Package queue provides the ordered list of pending track paths.
package queue

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/firefly/internal/app/filter"
)

// Queue is an in-memory FIFO of pending track paths.
// It is not safe for concurrent use; the playback controller owns it.
type Queue struct {
	items []string

	fileChain *filter.Chain // applied to explicitly chosen files
	dirChain  *filter.Chain // applied to directory entries
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		items:     make([]string, 0),
		fileChain: filter.NewChain(&filter.RegularFileFilter{}),
		dirChain:  filter.NewChain(&filter.RegularFileFilter{}, &filter.KnownFormatFilter{}),
	}
}

// Enqueue appends the paths that are regular files, preserving their order.
// Returns the number of paths appended.
func (q *Queue) Enqueue(paths ...string) int {
	return q.appendAccepted(q.fileChain, paths)
}

// EnqueueDir appends the known-format audio files found directly in dir.
// Subdirectories are not descended into. Entries are appended in name order.
func (q *Queue) EnqueueDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	paths := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() {
			return "", false
		}
		return filepath.Join(dir, e.Name()), true
	})
	sort.Strings(paths)

	return q.appendAccepted(q.dirChain, paths), nil
}

func (q *Queue) appendAccepted(chain *filter.Chain, paths []string) int {
	added := 0
	for _, p := range paths {
		if result := chain.Execute(p); !result.Accepted {
			zlog.Debug().Msgf("queue: rejected path=%s filter=%s code=%s", p, result.Filter, result.Code)
			continue
		}
		q.items = append(q.items, p)
		added++
	}
	return added
}

// Advance removes and returns the front of the queue.
// Returns false when there is nothing to play.
func (q *Queue) Advance() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	next := q.items[0]
	q.items = q.items[1:]
	return next, true
}

// PushFront puts path back at the front without re-checking it.
func (q *Queue) PushFront(path string) {
	q.items = append([]string{path}, q.items...)
}

// Len returns the number of pending paths.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty returns true if nothing is pending.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// Items returns a copy of the pending paths in play order.
func (q *Queue) Items() []string {
	result := make([]string, len(q.items))
	copy(result, q.items)
	return result
}

// Clear removes all pending paths and returns them.
func (q *Queue) Clear() []string {
	removed := q.items
	q.items = make([]string, 0)
	return removed
}
