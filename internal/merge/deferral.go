package merge

import (
	"strconv"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Deferral recognises placeholders owned by grouped questions. The dispatcher
// skips them; the replicator (questions with a row maximum) or the row cloner
// (row schedules, "<MergeField>_<row>") fills them later.
type Deferral struct {
	exact    map[string]struct{}
	schedule map[string]struct{}
}

// NewDeferral indexes the merge-field aliases of grouped questions.
func NewDeferral(questions []domain.Question) Deferral {
	d := Deferral{exact: make(map[string]struct{}), schedule: make(map[string]struct{})}
	for _, q := range questions {
		if !q.Grouped() {
			continue
		}
		for _, a := range q.Aliases() {
			a = strings.ToLower(a)
			if q.MaximumMultipleRowCount > 0 {
				d.exact[a] = struct{}{}
			} else {
				d.schedule[a] = struct{}{}
			}
		}
	}
	return d
}

// Match reports whether the placeholder name belongs to a grouped question.
func (d Deferral) Match(name string) bool {
	name = strings.ToLower(name)
	if _, ok := d.exact[name]; ok {
		return true
	}
	col, _, ok := ScheduleName(name)
	if !ok {
		return false
	}
	_, ok = d.schedule[strings.ToLower(col)]
	return ok
}

// ScheduleName splits "<column>_<row>" into its parts.
func ScheduleName(name string) (column string, row int, ok bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return name[:i], n, true
}
