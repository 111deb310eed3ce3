//go:build !unix

package main

import (
	"os"

	"balance-monitor/internal/core/domain"
)

// No user signals outside unix; lifecycle changes arrive over HTTP only.
var lifecycleSignals []os.Signal

func lifecycleFromOS(os.Signal) (domain.LifecycleSignal, bool) { return "", false }
