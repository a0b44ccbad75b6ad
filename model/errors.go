package model

import "fmt"

// UserErrorKind classifies errors that are the actor's to fix.
type UserErrorKind string

const (
	NotRegistered UserErrorKind = "not_registered"
	WrongChannel  UserErrorKind = "wrong_channel"
	NotReviewer   UserErrorKind = "not_reviewer"
	NotStaff      UserErrorKind = "not_staff"
	InvalidInput  UserErrorKind = "invalid_input"
)

// UserError is replied privately to the acting user and never escalated.
type UserError struct {
	Kind    UserErrorKind
	Message string
}

func (e *UserError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is matches any UserError of the same kind, so callers can compare against
// the sentinels below regardless of the message.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotRegistered = &UserError{Kind: NotRegistered, Message: "You are not registered for the competition"}
	ErrWrongChannel  = &UserError{Kind: WrongChannel, Message: "Submissions must be made in your team's submission channel"}
	ErrNotReviewer   = &UserError{Kind: NotReviewer, Message: "You do not have permission to review submissions"}
	ErrNotStaff      = &UserError{Kind: NotStaff, Message: "This command is restricted to staff"}
	ErrInvalidInput  = &UserError{Kind: InvalidInput, Message: "Invalid input"}
)

// Invalidf builds an InvalidInput user error with a specific message.
func Invalidf(format string, args ...any) *UserError {
	return &UserError{Kind: InvalidInput, Message: fmt.Sprintf(format, args...)}
}

// WrongChannelFor names the channel the player should use.
func WrongChannelFor(channelID string) *UserError {
	if channelID == "" {
		return ErrWrongChannel
	}
	return &UserError{
		Kind:    WrongChannel,
		Message: fmt.Sprintf("Submissions must be made in your team's submission channel <#%s>", channelID),
	}
}
