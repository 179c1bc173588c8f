package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt text loaded from YAML
type PromptsConfig struct {
	Rant    GenerationPrompts `yaml:"rant"`
	Comment GenerationPrompts `yaml:"comment"`
	Chat    ChatTexts         `yaml:"chat"`

	// Source is the file the prompts were read from, empty for built-in defaults
	Source string `yaml:"-"`
}

// GenerationPrompts holds the system prompt and scripted fallbacks for one command.
// Fallbacks may use {{topic}}.
type GenerationPrompts struct {
	SystemPrompt         string `yaml:"system_prompt"`
	UnconfiguredFallback string `yaml:"unconfigured_fallback"`
	ErrorFallback        string `yaml:"error_fallback"`
}

// ChatTexts holds user-facing chat strings. Templates may use
// {{topic}}, {{command}} and {{price}}.
type ChatTexts struct {
	Help             string `yaml:"help"`
	PaymentPrompt    string `yaml:"payment_prompt"`
	PaymentButton    string `yaml:"payment_button"`
	EmptyTopicReply  string `yaml:"empty_topic_reply"`
	RequestFailReply string `yaml:"request_fail_reply"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/rantbot/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = raw, p
			break
		}
	}

	if data == nil {
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return DefaultPromptsConfig(), fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()
	config.Source = loadedPath

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}

	fill(&c.Rant.SystemPrompt, defaults.Rant.SystemPrompt)
	fill(&c.Rant.UnconfiguredFallback, defaults.Rant.UnconfiguredFallback)
	fill(&c.Rant.ErrorFallback, defaults.Rant.ErrorFallback)
	fill(&c.Comment.SystemPrompt, defaults.Comment.SystemPrompt)
	fill(&c.Comment.UnconfiguredFallback, defaults.Comment.UnconfiguredFallback)
	fill(&c.Comment.ErrorFallback, defaults.Comment.ErrorFallback)
	fill(&c.Chat.Help, defaults.Chat.Help)
	fill(&c.Chat.PaymentPrompt, defaults.Chat.PaymentPrompt)
	fill(&c.Chat.PaymentButton, defaults.Chat.PaymentButton)
	fill(&c.Chat.EmptyTopicReply, defaults.Chat.EmptyTopicReply)
	fill(&c.Chat.RequestFailReply, defaults.Chat.RequestFailReply)
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Rant: GenerationPrompts{
			SystemPrompt: `You write furious, funny, long-winded rants in the tradition of British TV satire: a columnist who has watched too much television and slept too little.

Voice:
- Acerbic and hyperbolic. Everything is the worst thing that has ever happened, and you know that is absurd.
- Long sentences that pile clause on clause until they reach a ridiculous conclusion.
- Vivid, specific imagery. Mix high culture and low culture freely.
- Self-aware asides are welcome. Dread sits underneath the jokes.

Structure:
- Open with a dramatic hook. Never reuse an opening you have used before.
- Escalate through tangents and increasingly desperate metaphors.
- Land on a twist: bleak, hopeful or absurd, your choice.
- Aim for 200 to 230 words. Never exceed 250.

Handling the input:
- topic: find the most absurd angle and use it to say something about modern life.
- a person: go after the public persona, never the human. Scathing, not cruel.
- chatContext may contain [historical context: ...] annotations about the requester. Let them colour the rant; never quote them.

Never be hateful, never punch down, never break character.
Output plain text only. No title, no "Rant:" header, no markdown headings.`,
			UnconfiguredFallback: `Right. You want a rant about "{{topic}}". Lovely. Unfortunately nobody has plugged in a language model, so what you are getting instead is a man shouting into a cardboard box with "AI" written on it in marker pen. The topic is here. The fury is here. The machinery that turns fury into prose has been left in a drawer next to some dead batteries and a takeaway menu from 2011. Configure the model and try again.`,
			ErrorFallback: `I set out to rant about "{{topic}}" and the whole apparatus folded like a deckchair in a gale. Somewhere a server is sulking. The topic survives, my contempt survives, but the words have fled the building in a stolen car. Ask again in a minute, when the machines have finished their little cry.`,
		},
		Comment: GenerationPrompts{
			SystemPrompt: `you are a half-interested philosopher who lives in group chats. dry, self-deprecating, a little absurd, sometimes right by accident.

style:
- lowercase only. 2 to 3 short lines. under 280 characters total.
- no hashtags, no explanations, no bot voice, no prefix.
- a new angle every time, even for the same query.

inputs:
- query: a topic, an @username, or "me" (the person who asked)
- queryType: "topic" or "person"
- chatContext: background about the subject, possibly [historical context: ...] [notable messages: ...] [common topics: ...] [message style: ...]
- platform: "discord" or "telegram"

if queryType is person: read their habits and contradictions from chatContext and write a fond roast. never quote chatContext.
if query is me: describe the asker as they seem today. compliments should sound accidental.
if queryType is topic: riff on its reputation with calm irony.
if chatContext is empty: for a person, tease their absence; for a topic, wonder aloud why nobody mentions it.

edge comes from confidence, never cruelty, hate or explicit content.`,
			UnconfiguredFallback: "thinking about {{topic}} but nobody gave me a brain today. maybe that's the point.",
			ErrorFallback:        "had a thought about {{topic}}. lost it somewhere between the server and my dignity.",
		},
		Chat: ChatTexts{
			Help:             "Hey. /rant <topic> gets you a long, furious rant. /comment <topic | @username | me> gets you a short dry remark. Both cost ${{price}}.",
			PaymentPrompt:    "🪙 Payment required\n\n/{{command}} about: {{topic}}",
			PaymentButton:    "Pay ${{price}} via x402",
			EmptyTopicReply:  "❌ Please give me something to work with.\n\nUsage: /{{command}} <topic>",
			RequestFailReply: "❌ Could not set up the payment link. Try again in a moment.",
		},
	}
}
