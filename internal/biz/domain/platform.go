package domain

import (
	"errors"
	"strings"
)

// Platform identifies the chat network a user or request belongs to.
// Users on different platforms are never merged.
type Platform string

const (
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
)

// Sentinel errors shared across layers
var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrEmptyTopic      = errors.New("topic cannot be empty")
	ErrInvalidUserID   = errors.New("user id is required")
	ErrTokenExists     = errors.New("pending token already exists")
)

// ParsePlatform converts a raw platform tag into a Platform
func ParsePlatform(raw string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(raw))) {
	case PlatformDiscord:
		return PlatformDiscord, nil
	case PlatformTelegram:
		return PlatformTelegram, nil
	}
	return "", ErrUnknownPlatform
}

// Valid reports whether p is a supported platform
func (p Platform) Valid() bool {
	return p == PlatformDiscord || p == PlatformTelegram
}

func (p Platform) String() string {
	return string(p)
}
