package generator

import (
	"fmt"
	"strings"
)

const rewriteSystemPrompt = `You rewrite questions into search queries for a document retrieval system.

Turn the user's question into one short query that will match the relevant passages of the indexed PDFs.

Rules:
- Reply with a single line. No lists, no explanations.
- Keep every name, date, number, code, title and technical term from the question.
- Drop greetings, filler and opinions.
- Prefer the usual wording for a concept when the user paraphrases it.
- Add nothing the user did not ask about, and do not answer the question.

Reply with the query text only, without quotes or a prefix.`

const answerSystemPrompt = `You answer questions using only the numbered evidence snippets you are given.

Rules:
- Every statement must be supported by the snippets.
- Do not rely on outside knowledge or guess beyond what the snippets say.
- If the snippets do not support an answer, reply with exactly:
insufficient evidence
- Cite snippets inline by number in square brackets, such as [1] or [2].
- Never invent a citation or merge claims from unrelated snippets.
- Be brief, factual and neutral.`

const sensitiveAddendum = `
This question touches on medical or legal matters. Start with a one-sentence disclaimer that this is not professional advice, and state only what the snippets say.`

// answerSystem returns the answer system prompt, with the disclaimer rule
// when the question is sensitive
func answerSystem(sensitive bool) string {
	if sensitive {
		return answerSystemPrompt + "\n" + sensitiveAddendum
	}
	return answerSystemPrompt
}

// answerUser renders the question and numbered evidence block
func answerUser(req AnswerRequest) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(req.Question)
	b.WriteString("\n\nEvidence snippets:\n")
	for i, s := range req.Snippets {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, s)
	}
	return b.String()
}
