//go:build unix

package main

import (
	"os"
	"syscall"

	"balance-monitor/internal/core/domain"
)

// lifecycleSignals are the OS signals mapped to lifecycle changes:
// SIGUSR1 hides the balance, SIGUSR2 shows it again.
var lifecycleSignals = []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2}

func lifecycleFromOS(sig os.Signal) (domain.LifecycleSignal, bool) {
	switch sig {
	case syscall.SIGUSR1:
		return domain.LifecycleInactive, true
	case syscall.SIGUSR2:
		return domain.LifecycleActive, true
	}
	return "", false
}
