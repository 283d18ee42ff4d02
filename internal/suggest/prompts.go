package suggest

import "fmt"

// RuleSystemPrompt instructs the model to answer a rule request with SQL only.
const RuleSystemPrompt = "You are an assistant generating SQL validation rules."

// ChatSystemPrompt fixes the two-line reply format of the chat assistant.
const ChatSystemPrompt = `You are an expert assistant specialized in generating concise SQL validation rules.
Produce output strictly in the following format:
Rule: <Your most relevant SQL validation rule query here>
Explanation: <Brief reason why this rule is appropriate in this context>
Do not add any additional text or commentary beyond this format.`

// RuleRequest builds the conversation asking for a SQL rule on one column.
func RuleRequest(column, ruleText string) []Message {
	return []Message{
		{Role: RoleSystem, Content: RuleSystemPrompt},
		{
			Role: RoleUser,
			Content: fmt.Sprintf(
				"Create a SQL validation rule for the column %s: %s. Reply with the most relevant SQL query only, without any explanation.",
				column, ruleText),
		},
	}
}

// WithChatSystemPrompt prefixes a transcript with the chat system instruction.
func WithChatSystemPrompt(transcript []Message) []Message {
	out := make([]Message, 0, len(transcript)+1)
	out = append(out, Message{Role: RoleSystem, Content: ChatSystemPrompt})
	return append(out, transcript...)
}
