package service

import (
	"sync"

	"github.com/mrops-br/cart-api/internal/domain"
)

// subscribers fans committed carts out to observers. Each channel buffers a
// single cart; publishing replaces an unread value instead of blocking.
type subscribers struct {
	mu     sync.Mutex
	nextID int
	chans  map[int]chan domain.Cart
}

func newSubscribers() *subscribers {
	return &subscribers{chans: make(map[int]chan domain.Cart)}
}

// add registers a channel already holding seed
func (s *subscribers) add(seed domain.Cart) (<-chan domain.Cart, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan domain.Cart, 1)
	ch <- seed
	s.chans[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.chans, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *subscribers) publish(cart domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.chans {
		// Replace an unread cart with the newer one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cart.Clone():
		default:
		}
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chans)
}
