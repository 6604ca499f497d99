package ai

import (
	_ "embed"
	"text/template"
)

// SystemPrompt is the fixed instruction sent ahead of every price question.
const SystemPrompt = "You are an assistant that provides concise answers to questions about power prices. " +
	"Avoid explanations and only give out the result straight"

//go:embed prompts/price_query.tmpl
var priceQueryPromptRaw string

// PriceQueryTemplate renders the user turn from a message and a prices block.
// Parsed once at package init; reused on every request.
var PriceQueryTemplate = template.Must(template.New("price_query").Parse(priceQueryPromptRaw))
