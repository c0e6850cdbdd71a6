//go:build !unix

package lock

import (
	"errors"
	"os"
)

func tryLock(*os.File) error {
	return errors.New("file locks are not supported on this platform")
}
