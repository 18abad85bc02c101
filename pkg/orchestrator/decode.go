package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decomposition is the parsed output of the decompose stage.
type Decomposition struct {
	SubQuestions []string
	Instructions []string
}

type decompositionWire struct {
	SubQuestions *[]string `json:"sub_questions"`
	Instructions *[]string `json:"special_instructions"`
}

// parseDecomposition accepts exactly one JSON object with the two lists and
// nothing else. A surrounding markdown code fence is tolerated. An empty
// sub-question list decomposes to the query itself.
func parseDecomposition(raw, query string) (Decomposition, error) {
	fail := func(err error) (Decomposition, error) {
		return Decomposition{}, &ParseError{Raw: raw, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(stripFence(raw)))
	dec.DisallowUnknownFields()

	var w decompositionWire
	if err := dec.Decode(&w); err != nil {
		return fail(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fail(errors.New("unexpected data after the JSON object"))
	}
	if w.SubQuestions == nil {
		return fail(errors.New(`missing field "sub_questions"`))
	}
	if w.Instructions == nil {
		return fail(errors.New(`missing field "special_instructions"`))
	}

	d := Decomposition{
		SubQuestions: nonBlank(*w.SubQuestions),
		Instructions: nonBlank(*w.Instructions),
	}
	if len(d.SubQuestions) == 0 {
		d.SubQuestions = []string{strings.TrimSpace(query)}
	}
	return d, nil
}

type SynthesisKind string

const (
	KindSingle      SynthesisKind = "single"
	KindList        SynthesisKind = "list"
	KindSynthesized SynthesisKind = "synthesized"
	// KindText is used when the model ignored the requested shape.
	KindText SynthesisKind = "text"
)

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Synthesis is the combined answer in one of its shapes. Raw keeps the model
// output as received.
type Synthesis struct {
	Kind     SynthesisKind `json:"kind"`
	Question string        `json:"question,omitempty"`
	Answer   string        `json:"answer,omitempty"`
	Pairs    []QAPair      `json:"pairs,omitempty"`
	Raw      string        `json:"-"`
}

// Text renders the synthesis as the plain text handed to callers.
func (s Synthesis) Text() string {
	switch s.Kind {
	case KindSingle:
		if s.Question == "" {
			return s.Answer
		}
		return fmt.Sprintf("Question: %s\nAnswer: %s", s.Question, s.Answer)
	case KindList:
		blocks := make([]string, len(s.Pairs))
		for i, p := range s.Pairs {
			blocks[i] = fmt.Sprintf("Question: %s\nAnswer: %s", p.Question, p.Answer)
		}
		return strings.Join(blocks, "\n\n")
	case KindSynthesized:
		return s.Answer
	default:
		return strings.TrimSpace(s.Raw)
	}
}

// parseSynthesis never fails: output that does not match one of the shapes
// becomes a KindText synthesis over the raw text.
func parseSynthesis(raw string) Synthesis {
	fallback := Synthesis{Kind: KindText, Raw: raw}

	var s Synthesis
	if err := json.Unmarshal([]byte(stripFence(raw)), &s); err != nil {
		return fallback
	}
	s.Raw = raw
	s.Kind = SynthesisKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	s.Question = strings.TrimSpace(s.Question)
	s.Answer = strings.TrimSpace(s.Answer)

	switch s.Kind {
	case KindSingle, KindSynthesized:
		if s.Answer == "" {
			return fallback
		}
	case KindList:
		if len(s.Pairs) == 0 {
			return fallback
		}
	default:
		return fallback
	}
	return s
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
