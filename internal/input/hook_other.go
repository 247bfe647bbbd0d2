//go:build !windows && !linux

package input

import "context"

type unsupportedHook struct{}

func newPlatformHook(_ []string) Source {
	return unsupportedHook{}
}

func (unsupportedHook) Start(context.Context) error {
	return ErrUnsupported
}

func (unsupportedHook) Stop() error {
	return nil
}

func (unsupportedHook) Events() <-chan Event {
	return nil
}
