package push

import (
	"log/slog"
	"sync"
)

//go:generate mockgen -destination=mocks/mock_push.go -package=mocks -source=service.go ForegroundService

// ForegroundService keeps the process alive while the socket must stay open in
// the background
type ForegroundService interface {
	Start(listenForBundle, listenForManager bool) error
	Stop()
}

// KeepAlive is the default ForegroundService. It only records that a
// keep-alive is held so the status endpoint can report it.
type KeepAlive struct {
	mu            sync.Mutex
	running       bool
	listenBundle  bool
	listenManager bool
}

// Start implements ForegroundService
func (k *KeepAlive) Start(listenForBundle, listenForManager bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.running, k.listenBundle, k.listenManager = true, listenForBundle, listenForManager
	slog.Info("Push keep-alive held", "listen_bundle", listenForBundle, "listen_manager", listenForManager)
	return nil
}

// Stop implements ForegroundService
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		slog.Info("Push keep-alive released")
	}
	k.running = false
}

// Running reports whether the keep-alive is held
func (k *KeepAlive) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}
