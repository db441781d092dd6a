package daemon

import "github.com/pkg/errors"

func IsChild() bool { return false }

func Detach() (int, error) {
	return 0, errors.New("--daemon is not supported on windows")
}

func Settle() error { return nil }
