package app

import (
	"sync"

	"learnearnzone-service/internal/domain"
)

// WalletFeed fans wallet updates out to every open subscription of a member.
type WalletFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.WalletUpdate]struct{}
}

func NewWalletFeed() *WalletFeed {
	return &WalletFeed{
		subscribers: make(map[string]map[chan domain.WalletUpdate]struct{}),
	}
}

// Subscribe returns a channel of updates for memberID.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *WalletFeed) Subscribe(memberID string) (<-chan domain.WalletUpdate, func()) {
	ch := make(chan domain.WalletUpdate, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[memberID]
	if !ok {
		subs = make(map[chan domain.WalletUpdate]struct{})
		f.subscribers[memberID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[memberID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, memberID)
		}
	}
	return ch, cancel
}

// Publish delivers update to the member's subscribers without blocking.
func (f *WalletFeed) Publish(update domain.WalletUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[update.MemberID] {
		select {
		case ch <- update:
		default:
			// Slow subscriber: drop the oldest update so the newest balance wins.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// Subscribers reports how many open subscriptions a member has.
func (f *WalletFeed) Subscribers(memberID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[memberID])
}
