// Package session holds the cookie jar shared by the requests of one
// logical session.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/frankli0324/go-requests/internal/cookie"
)

// Session is a long-lived, internally synchronized cookie jar. The zero
// value is an empty session ready to use. A Session must not be copied
// after first use.
type Session struct {
	mu      sync.RWMutex
	cookies []*cookie.Cookie // in order of first insertion
	index   map[cookie.Key]int

	now func() time.Time
}

func New() *Session {
	return &Session{}
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// MatchedCookies returns a snapshot of the cookies to send to
// scheme://host with the effective path path. Cookies with longer paths
// come first, ties keep insertion order.
func (s *Session) MatchedCookies(scheme, host, path string) []*cookie.Cookie {
	now := s.clock()
	s.mu.RLock()
	var matched []*cookie.Cookie
	for _, c := range s.cookies {
		if c.Matches(scheme, host, path, now) {
			cc := *c
			matched = append(matched, &cc)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool {
		return len(matched[i].Path) > len(matched[j].Path)
	})
	return matched
}

// UpdateCookies merges cs into the jar: a cookie overwrites the stored one
// with the same name, domain and path, an expired cookie removes it.
func (s *Session) UpdateCookies(cs []*cookie.Cookie) {
	if len(cs) == 0 {
		return
	}
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		s.index = map[cookie.Key]int{}
	}
	for _, c := range cs {
		cc := *c
		i, ok := s.index[c.Key()]
		switch {
		case cc.Expired(now) && ok:
			s.remove(i)
		case cc.Expired(now):
		case ok:
			s.cookies[i] = &cc
		default:
			s.index[c.Key()] = len(s.cookies)
			s.cookies = append(s.cookies, &cc)
		}
	}
}

func (s *Session) SetCookie(c *cookie.Cookie) {
	s.UpdateCookies([]*cookie.Cookie{c})
}

// must hold s.mu
func (s *Session) remove(i int) {
	delete(s.index, s.cookies[i].Key())
	s.cookies = append(s.cookies[:i], s.cookies[i+1:]...)
	for j := i; j < len(s.cookies); j++ {
		s.index[s.cookies[j].Key()] = j
	}
}

// Cookies lists every unexpired cookie of the session, regardless of
// where it would be sent.
func (s *Session) Cookies() []*cookie.Cookie {
	now := s.clock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*cookie.Cookie
	for _, c := range s.cookies {
		if !c.Expired(now) {
			cc := *c
			all = append(all, &cc)
		}
	}
	return all
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.cookies, s.index = nil, nil
	s.mu.Unlock()
}
