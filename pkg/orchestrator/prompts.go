package orchestrator

import (
	"fmt"
	"strings"

	"docqa-be/pkg/agent"
)

const decomposePrompt = `Given a user question and a list of tools, output a list of relevant
sub-questions and special instructions, such that the answers to all the
sub-questions put together will answer the question.
Identify any special instructions unique to this query that guide tool usage,
such as posting the results or sending them somewhere. Do not list general
instructions like summarizing or simply answering the question.

If the user question is a simple question, the question itself is the only sub-question.
If the user question is a combination of questions, make each one a sub-question.
If the user question is a complex question, break it down into the sub-questions needed to answer it.
Always list the least possible number of sub-questions.

Respond in pure JSON without any markdown, with exactly these two fields:
{
    "sub_questions": [
        "What is the population of San Francisco?",
        "What is the budget of San Francisco?"
    ],
    "special_instructions": [
        "post the results to the channel"
    ]
}

Here is the user question: %s

And here is the list of tools:
%s`

const synthesisPrompt = `You are given an overall question that has been split into sub-questions,
each of which has been answered.

Respond in pure JSON without any markdown, choosing exactly one shape:
- If the original question is a simple question, output the question and answer pair:
  {"kind": "single", "question": "...", "answer": "..."}
- If the original question is a combination of questions, output the sub-question and answer pairs:
  {"kind": "list", "pairs": [{"question": "...", "answer": "..."}]}
- If the original question is a complex question, use the sub-questions and answers to answer it:
  {"kind": "synthesized", "question": "<original question>", "answer": "..."}

Original question: %s

Sub-questions and answers:
%s`

const executePrompt = `Having the combined answer already deduced, follow the given special instructions.
%s

Combined Answer:
%s`

func buildDecomposePrompt(query string, tools []agent.Tool) string {
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		spec := t.Spec()
		lines = append(lines, fmt.Sprintf("- %s: %s", spec.Name, spec.Description))
	}
	if len(lines) == 0 {
		lines = append(lines, "(none)")
	}
	return fmt.Sprintf(decomposePrompt, query, strings.Join(lines, "\n"))
}

// formatAnswers renders answers in the order given, one block per pair.
func formatAnswers(answers []SubAnswer) string {
	blocks := make([]string, len(answers))
	for i, a := range answers {
		blocks[i] = fmt.Sprintf("Question: %s: \n Answer: %s", a.Question, a.Answer)
	}
	return strings.Join(blocks, "\n\n")
}

func buildSynthesisPrompt(query string, answers []SubAnswer) string {
	return fmt.Sprintf(synthesisPrompt, query, formatAnswers(answers))
}

func buildExecutePrompt(instructions []string, combined string) string {
	lines := make([]string, len(instructions))
	for i, in := range instructions {
		lines[i] = "- " + in
	}
	return fmt.Sprintf(executePrompt, strings.Join(lines, "\n"), combined)
}
