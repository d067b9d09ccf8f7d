package composer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrGuestPostingDisabled indicates a guest submission while no shared
	// service credential is configured.
	ErrGuestPostingDisabled = errors.New("guest posting is disabled (server config error)")
	// ErrCoolingDown indicates the previous post was too recent.
	ErrCoolingDown = errors.New("please wait before posting again")
	// ErrEmptyText indicates the trimmed comment text is empty.
	ErrEmptyText = errors.New("comment text is empty")
	// ErrNicknameRequired indicates a guest submission without a nickname.
	ErrNicknameRequired = errors.New("nickname is required for guest posting")
	// ErrNicknameTooLong indicates a nickname beyond the configured length.
	ErrNicknameTooLong = errors.New("nickname is too long")
	// ErrNicknameInvalid indicates a nickname using marker characters.
	ErrNicknameInvalid = errors.New("nickname must not contain *, <, > or line breaks")
	// ErrAuthRequired indicates neither a session nor guest details were given.
	ErrAuthRequired = errors.New("authentication required")
)

// CooldownError reports how long a client must wait before posting again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%v: %ds remaining", ErrCoolingDown, e.Seconds())
}

// Is matches ErrCoolingDown.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCoolingDown
}

// Seconds rounds the remaining wait up to whole seconds for countdowns.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// IsRejection reports whether err is a local validation rejection rather
// than a backend failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCoolingDown) ||
		errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrNicknameRequired) ||
		errors.Is(err, ErrNicknameTooLong) ||
		errors.Is(err, ErrNicknameInvalid)
}
