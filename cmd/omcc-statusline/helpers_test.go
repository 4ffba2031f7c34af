package main

import (
	"os"

	"github.com/mrbonezy/omcc-statusline/internal/lock"
)

func lockForTest(a *app) (*os.File, error) {
	return lock.TryAcquire(a.store.Path(refreshLockKey))
}
