package compile

import (
	"sync"

	"github.com/jcdickinson/showroom/internal/rpc"
)

// Session tracks the requests of one editor. Only the result for the latest
// request is accepted; anything older is stale.
type Session struct {
	mu     sync.Mutex
	latest int
}

// Next returns a request for source with a fresh message id.
func (s *Session) Next(source string) rpc.CompileRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return rpc.CompileRequest{Source: source, MessageID: s.latest}
}

// Accept reports whether res answers the latest outstanding request.
func (s *Session) Accept(res rpc.CompileResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest != 0 && res.MessageID == s.latest
}
