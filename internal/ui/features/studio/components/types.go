package components

import (
	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/chat"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
)

// AppData is everything the studio app container renders.
type AppData struct {
	PageID string
	Table  *dataset.Table
	Draft  workspace.State

	ChatOpen    bool
	ChatLoading bool
	Messages    []chat.Message

	// CatalogEnabled hides the submit button and saved-rule list when false.
	CatalogEnabled bool
	SavedRules     []catalog.Rule
}

// InitialSignals are the datastar signals the page starts with.
type InitialSignals struct {
	PageID    string `json:"pageId"`
	Column    string `json:"column"`
	RuleText  string `json:"ruleText"`
	Severity  string `json:"severity"`
	ChatInput string `json:"chatInput"`
	RuleID    string `json:"ruleId"`
	// Notice is a one-line status shown under the workspace, e.g. after a save.
	Notice string `json:"notice"`
}
