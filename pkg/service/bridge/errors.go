package bridge

import "github.com/pkg/errors"

var (
	InvalidChannelError      = errors.New("invalid channel")
	IsInvalidChannel         = isErrorFunc(InvalidChannelError)
	OutputNotConfiguredError = errors.New("output not configured")
	IsOutputNotConfigured    = isErrorFunc(OutputNotConfiguredError)
	PWMActiveError           = errors.New("pwm active")
	IsPWMActive              = isErrorFunc(PWMActiveError)
	InvalidPWMConfigError    = errors.New("invalid pwm configuration")
	IsInvalidPWMConfig       = isErrorFunc(InvalidPWMConfigError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

func checkChannel(ch Channel) error {
	if !ch.Valid() {
		return errors.Wrapf(InvalidChannelError, "channel %d out of range [0..%d]", ch, ChannelCount-1)
	}
	return nil
}
