package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	MetaFilename = "filename"
	MetaPage     = "page"
	MetaChunk    = "chunk"
)

var (
	SystemPrompt = `You are a helpful assistant. Answer the question using only the provided context.`

	QAPromptTemplate = `CONTEXT:
%s

QUESTION: %s

INSTRUCTIONS:
1. Read the context carefully and find the information relevant to the question.
2. Answer clearly and in detail.
3. If the information is incomplete, say which part is missing.
4. Quote the context where possible.
5. If the answer is not in the context, reply: "I could not find information about this in the provided document."

ANSWER:
`
)
