package domain

import (
	"errors"
	"testing"
)

func TestParseCommandName(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  Command
		wantRest string
		wantOK   bool
	}{
		{"/rant cats", CommandRant, "cats", true},
		{"/Rant@BrookerBot   the  internet ", CommandRant, "the  internet", true},
		{"/comment for @jack", CommandComment, "for @jack", true},
		{"/rant\ncats", CommandRant, "cats", true},
		{"/start", Command("start"), "", true},
		{"hello /rant", "", "", false},
	}
	for _, tt := range tests {
		cmd, rest, ok := ParseCommandName(tt.text)
		if cmd != tt.wantCmd || rest != tt.wantRest || ok != tt.wantOK {
			t.Errorf("ParseCommandName(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.text, cmd, rest, ok, tt.wantCmd, tt.wantRest, tt.wantOK)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		cmd       Command
		arg       string
		wantTopic string
		wantType  QueryType
		wantErr   error
	}{
		{CommandRant, "the  internet", "the internet", QueryTopic, nil},
		{CommandRant, "   ", "", "", ErrEmptyTopic},
		{CommandComment, "for ambition", "ambition", QueryTopic, nil},
		{CommandComment, "@sofia", "@sofia", QueryPerson, nil},
		{CommandComment, "for me", "me", QueryPerson, nil},
		{CommandComment, "forest fires", "forest fires", QueryTopic, nil},
		{CommandComment, "for", "", "", ErrEmptyTopic},
		{Command("dance"), "now", "", "", ErrUnknownCommand},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.cmd, tt.arg)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseCommand(%q, %q) error = %v, want %v", tt.cmd, tt.arg, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if got.Topic != tt.wantTopic || got.QueryType != tt.wantType {
			t.Errorf("ParseCommand(%q, %q) = %+v", tt.cmd, tt.arg, got)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	if p, err := ParsePlatform(" Telegram "); err != nil || p != PlatformTelegram {
		t.Errorf("Expected telegram, got %q, %v", p, err)
	}
	if _, err := ParsePlatform("slack"); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("Expected ErrUnknownPlatform, got %v", err)
	}
}
