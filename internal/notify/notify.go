// Package notify holds transient user-facing notices (the terminal's toast).
package notify

import (
	"sync"
	"time"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Notice struct {
	Message  string
	Severity Severity
	At       time.Time
}

// Center keeps the latest notice; a new one replaces the previous.
type Center struct {
	mu      sync.Mutex
	current *Notice
	now     func() time.Time
}

func NewCenter() *Center { return &Center{now: time.Now} }

func (c *Center) push(sev Severity, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	c.current = &Notice{Message: msg, Severity: sev, At: now()}
}

func (c *Center) Info(msg string)    { c.push(Info, msg) }
func (c *Center) Success(msg string) { c.push(Success, msg) }
func (c *Center) Error(msg string)   { c.push(Error, msg) }

// Current returns the active notice, if any.
func (c *Center) Current() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notice{}, false
	}
	return *c.current, true
}

func (c *Center) Dismiss() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// Expire dismisses the current notice once it is older than ttl.
func (c *Center) Expire(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || now.Sub(c.current.At) < ttl {
		return false
	}
	c.current = nil
	return true
}
