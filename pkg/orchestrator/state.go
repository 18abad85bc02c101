package orchestrator

import (
	"sync"
	"time"
)

// SubAnswer is one answered sub-question. Failed marks answers whose text
// is an error description rather than an answer.
type SubAnswer struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Failed   bool   `json:"failed,omitempty"`
}

// RunState is the per-request context of one run. The collected answers
// and the join flag are guarded by mu; everything else is written by the
// run goroutine only.
type RunState struct {
	RequestID    string
	UserID       string
	Query        string
	SubQuestions []string
	Instructions []string
	Synthesis    *Synthesis
	Result       string
	ExecuteErr   error
	StartedAt    time.Time
	FinishedAt   time.Time

	mu       sync.Mutex
	expected int
	answered map[int]bool
	answers  []SubAnswer
	joined   bool
}

func NewRunState(req Request) *RunState {
	return &RunState{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		Query:     req.Query,
		StartedAt: time.Now(),
		answered:  make(map[int]bool),
	}
}

// Expect records the decomposition. The expected answer count is fixed
// from here on.
func (s *RunState) Expect(subQuestions, instructions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SubQuestions = subQuestions
	s.Instructions = instructions
	s.expected = len(subQuestions)
}

// Join records an arriving answer and reports whether this call completed
// the set. It returns true exactly once per run: on the call that brings
// the count to the expected total. Nil re-checks without adding. Duplicate
// indices and answers arriving after the join are ignored.
func (s *RunState) Join(a *SubAnswer) ([]SubAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.joined {
		return nil, false
	}
	if a != nil && !s.answered[a.Index] {
		s.answered[a.Index] = true
		s.answers = append(s.answers, *a)
	}
	if s.expected == 0 || len(s.answers) < s.expected {
		return nil, false
	}
	s.joined = true
	return append([]SubAnswer(nil), s.answers...), true
}

// Answers returns the answers collected so far in arrival order.
func (s *RunState) Answers() []SubAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SubAnswer(nil), s.answers...)
}

func (s *RunState) Expected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expected
}

func (s *RunState) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined
}
