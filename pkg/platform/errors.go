package platform

import (
	"errors"

	"github.com/Jacobbrewer1/discordgo"
)

// ErrNotFound is returned when a channel, thread or message does not exist
// on the platform. Fakes return it directly; the discord adapter maps REST
// error codes onto it.
var ErrNotFound = errors.New("platform: not found")

// ErrMissingAccess is returned when the bot does not have access to the
// resource. This requires human remediation and is never retried.
var ErrMissingAccess = errors.New("platform: missing access")

// IsNotFound reports whether err means the referenced platform resource does
// not exist. Distinct from other failures so callers can invalidate caches
// and recreate.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	er := new(discordgo.RESTError)
	if errors.As(err, &er) && er.Message != nil {
		// General is thrown when a 404 is returned.
		return er.Message.Code == discordgo.ErrCodeUnknownChannel ||
			er.Message.Code == discordgo.ErrCodeUnknownMessage ||
			er.Message.Code == discordgo.ErrCodeGeneralError
	}
	return false
}

// IsPermanent reports whether err can never succeed on retry: the resource
// is gone, or the bot lacks access or permission. Everything else is treated
// as transient.
func IsPermanent(err error) bool {
	if IsNotFound(err) || errors.Is(err, ErrMissingAccess) {
		return true
	}
	er := new(discordgo.RESTError)
	if errors.As(err, &er) && er.Message != nil {
		return er.Message.Code == discordgo.ErrCodeMissingAccess ||
			er.Message.Code == discordgo.ErrCodeMissingPermissions
	}
	return false
}
