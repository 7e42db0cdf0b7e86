package apply

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Entry records one attempted operation. Every operation the applier
// touches ends up here; nothing is silently dropped.
type Entry struct {
	Kind    string  `yaml:"kind"`
	Key     string  `yaml:"key"`
	Op      Op      `yaml:"op"`
	Outcome Outcome `yaml:"outcome"`
	Reason  string  `yaml:"reason,omitempty"`
}

// Report aggregates the outcome of one apply run. Appends are safe from
// concurrent tier workers.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	mu      sync.Mutex
	entries []Entry
}

func NewReport() *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
}

func (r *Report) record(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Report) outcomes(outcome Outcome) []Entry {
	entries := make([]Entry, 0)
	for _, entry := range r.Entries() {
		if entry.Outcome == outcome {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (r *Report) Failed() []Entry {
	return r.outcomes(OutcomeFailed)
}

func (r *Report) Skipped() []Entry {
	return r.outcomes(OutcomeSkipped)
}

func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0
}

// Summary renders the end-of-run report: one line per attempted
// operation, then totals.
func (r *Report) Summary() string {
	entries := r.Entries()
	var b strings.Builder
	counts := map[Outcome]int{}
	for _, entry := range entries {
		counts[entry.Outcome]++
		fmt.Fprintf(&b, "%-9s %s %s/%s", entry.Outcome, entry.Op, entry.Kind, entry.Key)
		if entry.Reason != "" {
			fmt.Fprintf(&b, " (%s)", entry.Reason)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "apply %s :: %d succeeded. %d failed. %d skipped.",
		r.RunID, counts[OutcomeSucceeded], counts[OutcomeFailed], counts[OutcomeSkipped])
	return b.String()
}
