package utils

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// MessageType selects the color of a CLI message.
type MessageType int

const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI escape sequences of the message colors.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// AppBadge prefixes every status line printed by the CLI.
const AppBadge = "🧶 SCONCHO"

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// NoColor disables the escape sequences. It follows the NO_COLOR
// convention and is also set by the CLI when stderr is not a terminal.
var NoColor = os.Getenv("NO_COLOR") != ""

// DecorateText wraps s in the color of msgType.
func DecorateText(s string, msgType MessageType) string {
	c, ok := messageColors[msgType]
	if !ok || NoColor {
		return s
	}
	return c + s + DefaultColor
}

// StatusLine composes the badge, a message and an optional trailing mark
// colored according to the message type.
func StatusLine(msg string, mark string, msgType MessageType) string {
	parts := []string{DecorateText(AppBadge, StatusMessage), DecorateText(msg, DefaultMessage)}
	if mark != "" {
		parts = append(parts, DecorateText(mark, msgType))
	}
	return strings.Join(parts, " ")
}

// FormatTime formats a duration as seconds with two decimals, prefixed by
// whole hours and minutes once they are reached.
func FormatTime(d time.Duration) string {
	secs := fmt.Sprintf("%.2fs", (d % time.Minute).Seconds())
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %s", int64(d/time.Minute), secs)
	}
	return fmt.Sprintf("%dh %dm %s", int64(d/time.Hour), int64(d%time.Hour/time.Minute), secs)
}
