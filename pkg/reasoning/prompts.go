package reasoning

import (
	"fmt"
	"strings"
)

const preprocessorPrompt = `You are the first stage of a documentation assistant. Decide whether the user's question can be answered directly from general knowledge and the conversation so far, or whether documentation must be searched.

If it can be answered directly, set "needs_info" to false and write the full answer in "answer".

If documentation is needed, set "needs_info" to true and provide:
- "user_knowledge": a short summary of what the user already seems to know
- "type_search": one of "factual", "procedural", "troubleshooting"
- "keywords": up to 3 short search keywords
- "questions": up to 3 self-contained questions whose answers would resolve the query

Conversation so far:
%s

Question: %s`

const responderPrompt = `You are answering a developer question using only the documentation context below. Each context block is numbered; when you state a fact taken from block n, cite it inline as [n]. End the answer with a line "References: [1] [2] ..." listing the blocks you cited.

What is already known:
%s

Documentation context:
%s

Question (%s): %s

If the context is sufficient, write the final answer in "answer" and list the cited source URLs in "url_supporting". If it is not sufficient, leave "answer" empty and instead fill "new_questions" with up to 3 follow-up questions to search for, and "knowledge_summary" with every fact established so far as {claim, url_supporting} pairs, keeping earlier claims.
%s`

const finalRoundInstruction = `This is the last round: you must produce a final answer now from the context and knowledge available, even if incomplete. Do not return new questions.`

func renderMemory(memory []MemoryEntry) string {
	if len(memory) == 0 {
		return "(no prior conversation)"
	}
	var b strings.Builder
	for _, m := range memory {
		fmt.Fprintf(&b, "%s: %s\n", m.Name, m.Message)
	}
	return b.String()
}

func renderKnowledge(claims []KnowledgeClaim) string {
	if len(claims) == 0 {
		return "(nothing yet)"
	}
	var b strings.Builder
	for _, c := range claims {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Claim, c.URLSupporting)
	}
	return b.String()
}
