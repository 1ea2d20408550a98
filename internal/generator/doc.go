// Package generator writes answers from retrieved evidence.
//
// ChatGenerator talks to any OpenAI-compatible chat-completions API
// (Mistral or OpenAI). Extractive quotes the best snippet and needs no
// network access.
//
// Both honour the same contract: answers come only from the numbered
// snippets, cite them as [n], and fall back to the literal text
// "insufficient evidence".
package generator
