package sconcho

import (
	"context"
	"log"
	"sync"
	"time"
)

// Loop runs posted closures one at a time on the goroutine calling Run.
// Every mutation of a canvas goes through the loop, so model state is only
// ever touched by one goroutine.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a loop ready to accept work.
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Post schedules fn to run on the loop. It blocks while the queue is full
// and reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes posted closures in order until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Autosaver periodically saves a document on its loop.
type Autosaver struct {
	Doc *Document
	// OnSave is called on the loop after each tick that wrote the file.
	OnSave func(path string)
	// OnError is called on the loop when an autosave fails.
	OnError func(err error)
}

// Schedule posts an autosave tick into loop every interval until ctx is
// cancelled or the loop stops. Ticks run on the loop and therefore never
// interleave with other posted mutations.
func (a *Autosaver) Schedule(ctx context.Context, loop *Loop, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultConfig().AutosaveInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-loop.Done():
				return
			case <-ticker.C:
				if !loop.Post(a.tick) {
					return
				}
			}
		}
	}()
}

func (a *Autosaver) tick() {
	saved, err := a.Doc.AutosaveTick()
	switch {
	case err != nil:
		if a.OnError != nil {
			a.OnError(err)
		} else {
			log.Printf("sconcho: autosave failed: %v", err)
		}
	case saved && a.OnSave != nil:
		a.OnSave(a.Doc.Path())
	}
}
