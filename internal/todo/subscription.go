package todo

// Subscription delivers a signal after each write to the store. Signals are
// coalesced: a reader that falls behind sees one pending signal, never a
// blocked writer.
type Subscription struct {
	svc *Service
	ch  chan struct{}
}

func (s *Service) Subscribe() *Subscription {
	sub := &Subscription{svc: s, ch: make(chan struct{}, 1)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// Changes is closed when the subscription is closed.
func (sub *Subscription) Changes() <-chan struct{} {
	return sub.ch
}

func (sub *Subscription) Close() {
	sub.svc.mu.Lock()
	defer sub.svc.mu.Unlock()
	if _, ok := sub.svc.subs[sub]; !ok {
		return
	}
	delete(sub.svc.subs, sub)
	close(sub.ch)
}

// Notify signals every open subscription. It is safe to call from any goroutine.
func (s *Service) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}
