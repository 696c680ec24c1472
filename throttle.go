// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"sync"
	"sync/atomic"
)

// throttle runs up to Max functions at a time and remembers the first
// error any of them returns.
type throttle struct {
	Max       int
	wg        sync.WaitGroup
	ch        chan bool
	err       atomic.Value
	setupOnce sync.Once
	errorOnce sync.Once
}

// Go waits for a free slot, then calls fn in a new goroutine.
func (t *throttle) Go(fn func() error) {
	t.setupOnce.Do(func() { t.ch = make(chan bool, t.Max) })
	t.wg.Add(1)
	t.ch <- true
	go func() {
		defer func() {
			<-t.ch
			t.wg.Done()
		}()
		if err := fn(); err != nil {
			t.errorOnce.Do(func() { t.err.Store(err) })
		}
	}()
}

// Err returns the first error reported so far, if any.
func (t *throttle) Err() error {
	err, _ := t.err.Load().(error)
	return err
}

// Wait waits for all functions to return, then returns the first
// error.
func (t *throttle) Wait() error {
	t.wg.Wait()
	return t.Err()
}
