package types

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrorKind classifies a CrackedError per the propagation policy: resolver
// and queue-engine errors surface to the invoking command, event-logger
// errors never surface, persistence errors are logged and swallowed.
type ErrorKind string

const (
	ErrNoGuildID         ErrorKind = "no_guild_id"
	ErrGuildOnly         ErrorKind = "guild_only"
	ErrNotConnected      ErrorKind = "not_connected"
	ErrNotInRange        ErrorKind = "not_in_range"
	ErrQueueEmpty        ErrorKind = "queue_empty"
	ErrNothingPlaying    ErrorKind = "nothing_playing"
	ErrUnauthorizedUser  ErrorKind = "unauthorized_user"
	ErrOwnersOnly        ErrorKind = "owners_only"
	ErrNoQuery           ErrorKind = "no_query"
	ErrEmptySearchResult ErrorKind = "empty_search_result"
	ErrAudioStream       ErrorKind = "audio_stream"
	ErrExternalService   ErrorKind = "external_service"
	ErrPersistence       ErrorKind = "persistence"
	ErrLogChannelWarning ErrorKind = "log_channel_warning"
	ErrDomainRejected    ErrorKind = "domain_rejected"
)

// CrackedError is the tagged error variant set from the error handling
// design: every kind the resolver, queue engine, and command orchestrators
// can fail with, plus an optional wrapped cause.
type CrackedError struct {
	Kind    ErrorKind
	Message string
	Cause   error

	// Param/Val/Lo/Hi are populated for ErrNotInRange.
	Param string
	Val   float64
	Lo    float64
	Hi    float64
}

func (e *CrackedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CrackedError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, &CrackedError{Kind: X}) style matching on Kind alone.
func (e *CrackedError) Is(target error) bool {
	other, ok := target.(*CrackedError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func NewNoGuildID() *CrackedError {
	return &CrackedError{Kind: ErrNoGuildID, Message: "this command must be used in a server"}
}

func NewGuildOnly() *CrackedError {
	return &CrackedError{Kind: ErrGuildOnly, Message: "this command only works in a server, not in DMs"}
}

func NewNotConnected(guildID string) *CrackedError {
	return &CrackedError{Kind: ErrNotConnected, Message: fmt.Sprintf("not connected to a voice channel in guild %s", guildID)}
}

func NewNotInRange(param string, val, lo, hi float64) *CrackedError {
	return &CrackedError{
		Kind:    ErrNotInRange,
		Message: fmt.Sprintf("%s must be between %v and %v, got %v", param, lo, hi, val),
		Param:   param, Val: val, Lo: lo, Hi: hi,
	}
}

func NewQueueEmpty() *CrackedError {
	return &CrackedError{Kind: ErrQueueEmpty, Message: "the queue is empty"}
}

func NewNothingPlaying() *CrackedError {
	return &CrackedError{Kind: ErrNothingPlaying, Message: "nothing is currently playing"}
}

func NewUnauthorizedUser() *CrackedError {
	return &CrackedError{Kind: ErrUnauthorizedUser, Message: "you are not authorized to use this command"}
}

func NewOwnersOnly() *CrackedError {
	return &CrackedError{Kind: ErrOwnersOnly, Message: "this command is restricted to bot owners"}
}

func NewNoQuery() *CrackedError {
	return &CrackedError{Kind: ErrNoQuery, Message: "no query or attachment was provided"}
}

func NewEmptySearchResult(query string) *CrackedError {
	return &CrackedError{Kind: ErrEmptySearchResult, Message: fmt.Sprintf("no results found for %q", query)}
}

func NewAudioStream(hint string, cause error) *CrackedError {
	return &CrackedError{Kind: ErrAudioStream, Message: hint, Cause: cause}
}

func NewExternalService(service string, cause error) *CrackedError {
	return &CrackedError{Kind: ErrExternalService, Message: fmt.Sprintf("%s is unavailable right now", service), Cause: cause}
}

func NewPersistence(op string, cause error) *CrackedError {
	return &CrackedError{Kind: ErrPersistence, Message: fmt.Sprintf("persistence failed: %s", op), Cause: cause}
}

func NewLogChannelWarning(event string) *CrackedError {
	return &CrackedError{Kind: ErrLogChannelWarning, Message: fmt.Sprintf("no log channel configured for event %s", event)}
}

// NewDomainBanned is the resolver guardrail rejection for an explicitly
// banned domain. Message text matches the exact reply scenario.
func NewDomainBanned(domain string) *CrackedError {
	return &CrackedError{Kind: ErrDomainRejected, Message: fmt.Sprintf("domain banned: %s", domain)}
}

// NewDomainNotAllowed is the resolver guardrail rejection when an allow-list
// is configured and domain is not on it.
func NewDomainNotAllowed(domain string) *CrackedError {
	return &CrackedError{Kind: ErrDomainRejected, Message: fmt.Sprintf("domain not allowed: %s", domain)}
}

// CrackedMessage is the central message-formatting layer referenced by the
// error handling design: it turns any CrackedError into the embed a command
// orchestrator replies with. Event-logger and persistence errors never pass
// through here — they are logged and swallowed at the source.
type CrackedMessage struct {
	Embed *discordgo.MessageEmbed
}

// NewCrackedErrorMessage builds the user-facing embed for a surfaced error.
func NewCrackedErrorMessage(err *CrackedError) CrackedMessage {
	return CrackedMessage{
		Embed: &discordgo.MessageEmbed{
			Title:       "⚠️ " + errorTitle(err.Kind),
			Description: err.Message,
			Color:       0xe74c3c,
			Timestamp:   time.Now().Format(time.RFC3339),
		},
	}
}

func errorTitle(k ErrorKind) string {
	switch k {
	case ErrNoGuildID, ErrGuildOnly:
		return "Server only"
	case ErrNotConnected:
		return "Not connected"
	case ErrNotInRange:
		return "Out of range"
	case ErrQueueEmpty, ErrNothingPlaying:
		return "Nothing to do"
	case ErrUnauthorizedUser, ErrOwnersOnly:
		return "Not authorized"
	case ErrNoQuery, ErrEmptySearchResult:
		return "No results"
	case ErrAudioStream:
		return "Playback failed"
	case ErrExternalService:
		return "Service unavailable"
	case ErrDomainRejected:
		return "Domain rejected"
	default:
		return "Error"
	}
}
