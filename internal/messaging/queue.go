package messaging

import (
	"sync"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// contactQueue hands envelopes to fn in arrival order per sender. Each sender
// with pending messages gets one drain goroutine, which exits once its queue
// is empty. Different senders drain concurrently.
type contactQueue struct {
	fn      func(models.Envelope)
	mu      sync.Mutex
	pending map[string][]models.Envelope
	wg      sync.WaitGroup
}

func newContactQueue(fn func(models.Envelope)) *contactQueue {
	return &contactQueue{fn: fn, pending: make(map[string][]models.Envelope)}
}

func (q *contactQueue) push(env models.Envelope) {
	q.mu.Lock()
	list, draining := q.pending[env.From]
	q.pending[env.From] = append(list, env)
	q.mu.Unlock()
	if draining {
		return
	}
	q.wg.Add(1)
	go q.drain(env.From)
}

func (q *contactQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		list := q.pending[key]
		if len(list) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		env := list[0]
		q.pending[key] = list[1:]
		q.mu.Unlock()
		q.fn(env)
	}
}

// wait blocks until every queued envelope has been handled.
func (q *contactQueue) wait() {
	q.wg.Wait()
}

// active reports how many senders currently have a drain goroutine.
func (q *contactQueue) active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
