package main

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/kbukum/annotpipe/component"
)

// hostLock holds an exclusive file lock so only one pipeline host runs per
// lock file. Registered first, it is released last.
type hostLock struct {
	path string
	lock *flock.Flock
}

func newHostLock(path string) *hostLock {
	return &hostLock{path: path, lock: flock.New(path)}
}

func (h *hostLock) Name() string { return "host-lock" }

func (h *hostLock) Start(context.Context) error {
	ok, err := h.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", h.path, err)
	}
	if !ok {
		return fmt.Errorf("another annotpipe instance holds %s", h.path)
	}
	return nil
}

func (h *hostLock) Stop(context.Context) error {
	return h.lock.Unlock()
}

func (h *hostLock) Health(context.Context) component.Health {
	if h.lock.Locked() {
		return component.Health{Name: h.Name(), Status: component.StatusHealthy}
	}
	return component.Health{Name: h.Name(), Status: component.StatusUnhealthy, Message: "lock not held"}
}

func (h *hostLock) Describe() component.Description {
	return component.Description{Name: "Host lock", Type: "lock", Details: h.path}
}
