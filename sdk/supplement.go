package sdk

import (
	"context"
	"slices"
	"sync"

	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/bhandras/chatkit/pkg/logger"
)

// supplementer watches the store for partial users and fetches their
// profiles, feeding them back as FetchedUsers actions.
type supplementer struct {
	client  *Client
	fetcher UserFetcher

	ctx         context.Context
	cancel      context.CancelFunc
	cancelStore func()
	wg          sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	// unknown holds identifiers the server did not return. They are not
	// requested again.
	unknown map[string]struct{}
}

func newSupplementer(c *Client, fetcher UserFetcher) *supplementer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &supplementer{
		client:   c,
		fetcher:  fetcher,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
		unknown:  make(map[string]struct{}),
	}
	if fetcher != nil {
		_, s.cancelStore = c.store.Subscribe(s.report)
	}
	return s
}

// report is a store listener. It runs inside Dispatch, so fetches happen on
// their own goroutine.
func (s *supplementer) report(v state.VersionedState) {
	if ids := s.claim(v.Chat); len(ids) > 0 {
		go s.fetch(ids)
	}
}

// claim returns the partial users not yet requested and marks them in
// flight. A non-empty result is counted in wg.
func (s *supplementer) claim(chat state.ChatState) []string {
	partial := chat.Users.PartialIdentifiers()
	if chat.CurrentUser.Kind == state.UserPartial {
		partial = append(partial, chat.CurrentUser.Identifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return nil
	}

	var ids []string
	for _, id := range partial {
		if _, ok := s.inflight[id]; ok {
			continue
		}
		if _, ok := s.unknown[id]; ok {
			continue
		}
		s.inflight[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	s.wg.Add(1)
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (s *supplementer) fetch(ids []string) {
	defer s.wg.Done()

	users, err := s.fetcher.Fetch(s.ctx, ids)
	s.client.metrics.UsersFetch(len(users), err)
	if err != nil {
		s.release(ids, nil, false)
		if s.ctx.Err() == nil {
			logger.Warnf("sdk: fetching %d users: %v", len(ids), err)
			s.client.reportError(state.UserSubscription(), err)
		}
		return
	}

	s.client.enqueue(func() {
		if len(users) > 0 {
			s.client.store.Dispatch(action.FetchedUsers{Users: users})
		}
		s.release(ids, users, true)
	})
}

// release clears the in-flight marks of ids. When resolved is set, ids
// missing from users are remembered as unknown.
func (s *supplementer) release(ids []string, users []wire.User, resolved bool) {
	found := make(map[string]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.inflight, id)
		if _, ok := found[id]; resolved && !ok {
			logger.Debugf("sdk: user %s not found", id)
			s.unknown[id] = struct{}{}
		}
	}
}

func (s *supplementer) stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	if s.cancelStore != nil {
		s.cancelStore()
	}
	s.wg.Wait()
}
