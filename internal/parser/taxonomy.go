package parser

import (
	"strings"

	"github.com/tidwall/gjson"
)

// CategoryKind groups breakdown categories.
type CategoryKind string

const (
	CategoryTool      CategoryKind = "tool"
	CategoryAssistant CategoryKind = "assistant"
	CategoryUser      CategoryKind = "user"
)

// Breakdown category names for non-tool messages.
const (
	CatAssistantThinking = "assistant:thinking"
	CatAssistantText     = "assistant:text"
	CatUserSlashCommand  = "user:slash_command"
	CatUserHumanInput    = "user:human_input"
)

// categoryExcludedTools are UI-only control tools that do not
// represent agent work in the message breakdown.
var categoryExcludedTools = map[string]bool{
	"TodoWrite":    true,
	"TaskUpdate":   true,
	"ExitPlanMode": true,
	"KillShell":    true,
}

// timingExcludedTools are tools whose elapsed time is spent
// waiting on the human, not on the agent or the tool.
var timingExcludedTools = map[string]bool{
	"AskUserQuestion": true,
}

// IsTimingExcluded reports whether a tool's call-to-result
// time is left out of tool time.
func IsTimingExcluded(name string) bool {
	return timingExcludedTools[name]
}

const (
	slashCommandMarker = "<command-name>"
	frontMatterDelim   = "---"
	allowedToolsMarker = "allowed-tools:"
)

// MessageCategory is a message's bucket in the breakdown.
type MessageCategory struct {
	Category string       `json:"category"`
	Kind     CategoryKind `json:"type"`
}

// Category classifies the event for the message breakdown.
// ok is false when the event does not count: tool-result turns,
// injected skill prompts, system records and the like.
func (e Event) Category() (MessageCategory, bool) {
	switch e.kind {
	case KindAssistant:
		return e.assistantCategory()
	case KindUser:
		return e.userCategory()
	default:
		return MessageCategory{}, false
	}
}

func (e Event) assistantCategory() (MessageCategory, bool) {
	for _, name := range e.Tools() {
		if !categoryExcludedTools[name] {
			return MessageCategory{Category: name, Kind: CategoryTool}, true
		}
	}
	var hasThinking, hasText bool
	e.blocks(func(block gjson.Result) bool {
		switch block.Get("type").Str {
		case blockThinking:
			hasThinking = true
		case blockText:
			hasText = true
		}
		return true
	})
	switch {
	case hasThinking:
		return MessageCategory{Category: CatAssistantThinking, Kind: CategoryAssistant}, true
	case hasText:
		return MessageCategory{Category: CatAssistantText, Kind: CategoryAssistant}, true
	}
	return MessageCategory{}, false
}

func (e Event) userCategory() (MessageCategory, bool) {
	slash := MessageCategory{Category: CatUserSlashCommand, Kind: CategoryUser}
	human := MessageCategory{Category: CatUserHumanInput, Kind: CategoryUser}

	content := e.Content()
	if content.Type == gjson.String {
		if strings.Contains(content.Str, slashCommandMarker) {
			return slash, true
		}
		return human, true
	}
	if !content.IsArray() {
		return MessageCategory{}, false
	}
	if len(e.ToolResults()) > 0 {
		return MessageCategory{}, false
	}

	var (
		hasText bool
		result  MessageCategory
		decided bool
		counted bool
	)
	e.blocks(func(block gjson.Result) bool {
		if block.Get("type").Str != blockText {
			return true
		}
		hasText = true
		text := block.Get("text").Str
		switch {
		case isSkillPrompt(text):
			decided, counted = true, false
			return false
		case strings.Contains(text, slashCommandMarker):
			decided, counted, result = true, true, slash
			return false
		}
		return true
	})
	if decided {
		return result, counted
	}
	if hasText {
		return human, true
	}
	return MessageCategory{}, false
}

// isSkillPrompt detects a skill definition injected as a user
// turn: YAML front matter declaring allowed-tools.
func isSkillPrompt(text string) bool {
	return strings.HasPrefix(text, frontMatterDelim) &&
		strings.Contains(text, allowedToolsMarker)
}
