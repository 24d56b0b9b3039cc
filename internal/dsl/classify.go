package dsl

import (
	"strings"

	"github.com/7and1/difyrun/internal/core/domain"
)

// MaxTags caps the number of inferred tags per workflow.
const MaxTags = 10

// categoryRule is one step of the fixed-priority classification cascade.
// The first matching rule wins.
type categoryRule struct {
	id       string
	keywords []string
	// extra structural hints beyond keyword matching
	match func(p *ParsedDSL) bool
}

var categoryRules = []categoryRule{
	{id: "mcp", keywords: []string{"mcp", "model context protocol"}},
	{id: "agents", keywords: []string{"agent"},
		match: func(p *ParsedDSL) bool { return p.Mode == "agent" }},
	{id: "rag", keywords: []string{"rag", "retrieval", "knowledge"},
		match: func(p *ParsedDSL) bool { return p.HasKnowledgeBase }},
	{id: "chatbots", keywords: []string{"chat", "bot", "assistant"},
		match: func(p *ParsedDSL) bool { return p.Mode == "chat" }},
	{id: "content", keywords: []string{"content", "write", "seo", "copy", "article", "blog"}},
	{id: "translation", keywords: []string{"translat", "language", "multilingual", "i18n"}},
	{id: "data", keywords: []string{"data", "analys", "chart", "csv", "excel", "report"}},
	{id: "automation", keywords: []string{"automat", "workflow", "pipeline", "batch", "schedule", "trigger"}},
	{id: "development", keywords: []string{"code", "debug", "develop", "review", "github", "programming"}},
}

// keywordTag maps a lowercase keyword to the tags it implies. Order
// matters: candidates are gathered first-seen, so this is a slice rather
// than a map.
type keywordTag struct {
	keyword string
	tags    []string
}

var keywordTags = []keywordTag{
	// AI models
	{"gpt", []string{"GPT", "OpenAI"}},
	{"claude", []string{"Claude", "Anthropic"}},
	{"llama", []string{"Llama", "Meta"}},
	{"gemma", []string{"Gemma", "Google"}},
	{"gemini", []string{"Gemini", "Google"}},
	{"openai", []string{"OpenAI"}},

	// Platforms
	{"slack", []string{"Slack"}},
	{"discord", []string{"Discord"}},
	{"telegram", []string{"Telegram"}},
	{"wechat", []string{"WeChat"}},
	{"twitter", []string{"Twitter"}},
	{"youtube", []string{"YouTube"}},
	{"tiktok", []string{"TikTok"}},

	// Use cases
	{"seo", []string{"SEO"}},
	{"email", []string{"Email"}},
	{"scrape", []string{"Web Scraping"}},
	{"crawl", []string{"Web Crawling"}},
	{"search", []string{"Search"}},
	{"summariz", []string{"Summarization"}},
	{"extract", []string{"Extraction"}},

	// Content types
	{"image", []string{"Image"}},
	{"video", []string{"Video"}},
	{"audio", []string{"Audio"}},
	{"pdf", []string{"PDF"}},
	{"document", []string{"Documents"}},

	// Features
	{"api", []string{"API"}},
	{"webhook", []string{"Webhook"}},
	{"cron", []string{"Scheduled"}},
}

// modeTags maps recognised app modes to a display tag. Unrecognised
// modes simply contribute no tag.
var modeTags = map[string]string{
	"chat":       "Chat",
	"workflow":   "Workflow",
	"agent":      "Agent",
	"completion": "Completion",
}

// InferCategory returns the category for a workflow. It never fails:
// parsed may be nil, and when no rule matches the fixed default wins.
func InferCategory(filePath string, parsed *ParsedDSL) string {
	combined := combinedText(filePath, parsed)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				return rule.id
			}
		}
		if rule.match != nil && parsed != nil && rule.match(parsed) {
			return rule.id
		}
	}
	return domain.DefaultCategoryID
}

// InferTags gathers candidate tags from intermediate path segments, the
// keyword table, and the app mode, deduplicated in first-seen order and
// capped at MaxTags.
func InferTags(filePath string, parsed *ParsedDSL) []string {
	var tags []string

	// Folder names along the path make decent tags.
	parts := strings.Split(filePath, "/")
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if part == "" || strings.HasPrefix(part, ".") || len(part) <= 2 {
			continue
		}
		clean := strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(part))
		if len(clean) > 2 && len(clean) < 30 {
			tags = append(tags, clean)
		}
	}

	combined := combinedText(filePath, parsed)
	for _, kt := range keywordTags {
		if strings.Contains(combined, kt.keyword) {
			tags = append(tags, kt.tags...)
		}
	}

	if parsed != nil {
		if tag, ok := modeTags[parsed.Mode]; ok {
			tags = append(tags, tag)
		}
	}

	tags = MergeTags(nil, tags)
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

// MergeTags concatenates tag lists, trimming blanks and deduplicating
// while preserving first-seen order.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// combinedText builds the lowercase haystack the keyword rules scan:
// path, then description, then name.
func combinedText(filePath string, parsed *ParsedDSL) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(filePath))
	if parsed != nil {
		b.WriteString(" ")
		b.WriteString(strings.ToLower(parsed.Description))
		b.WriteString(" ")
		b.WriteString(strings.ToLower(parsed.Name))
	}
	return b.String()
}
