// Package studio provides the rule-authoring page: the sample table, the
// rule workspace, saved rules and the chat panel.
package studio

// Signals are the datastar signals posted by every studio action.
type Signals struct {
	PageID    string `json:"pageId"`
	Column    string `json:"column"`
	RuleText  string `json:"ruleText"`
	Severity  string `json:"severity"`
	ChatInput string `json:"chatInput"`
	RuleID    string `json:"ruleId"`
}
