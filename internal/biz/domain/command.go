package domain

import "strings"

// Command is a paid bot command
type Command string

const (
	CommandRant    Command = "rant"
	CommandComment Command = "comment"
)

// QueryType tells the generator whether the argument names a topic or a person
type QueryType string

const (
	QueryTopic  QueryType = "topic"
	QueryPerson QueryType = "person"
)

// SelfQuery is the comment argument that refers to the requester
const SelfQuery = "me"

// ParsedCommand is a command with its validated argument
type ParsedCommand struct {
	Command   Command
	Topic     string
	QueryType QueryType
}

// ParseCommandName normalizes "/Rant@SomeBot" to CommandRant.
// ok is false for text that is not a slash command at all.
func ParseCommandName(text string) (cmd Command, rest string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return Command(strings.ToLower(head)), strings.TrimSpace(rest), true
}

// ParseCommand validates a command and its argument
func ParseCommand(cmd Command, arg string) (*ParsedCommand, error) {
	arg = strings.Join(strings.Fields(arg), " ")
	switch cmd {
	case CommandRant:
		if arg == "" {
			return nil, ErrEmptyTopic
		}
		return &ParsedCommand{Command: cmd, Topic: arg, QueryType: QueryTopic}, nil
	case CommandComment:
		// "/comment for cats" reads the same as "/comment cats"
		if lower := strings.ToLower(arg); strings.HasPrefix(lower, "for ") || lower == "for" {
			arg = strings.TrimSpace(arg[3:])
		}
		if arg == "" {
			return nil, ErrEmptyTopic
		}
		qt := QueryTopic
		if strings.HasPrefix(arg, "@") || strings.EqualFold(arg, SelfQuery) {
			qt = QueryPerson
		}
		return &ParsedCommand{Command: cmd, Topic: arg, QueryType: qt}, nil
	}
	return nil, ErrUnknownCommand
}

// NormalizeUsername strips a leading "@" and lowercases
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}
