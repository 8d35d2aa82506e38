package cache

import "time"

// StartJanitor purges expired entries every interval until Stop is called.
// Calling it while a janitor is already running is a no-op.
func (c *Cache[V]) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}

	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()

	if c.stopChan != nil {
		return
	}
	c.stopChan = make(chan struct{})
	c.stopped = make(chan struct{})

	go c.janitorLoop(interval, c.stopChan, c.stopped)
}

// Stop halts the janitor and waits for it to exit.
func (c *Cache[V]) Stop() {
	c.janitorMu.Lock()
	stop, done := c.stopChan, c.stopped
	c.stopChan, c.stopped = nil, nil
	c.janitorMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Cache[V]) janitorLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
