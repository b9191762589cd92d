package dispatch

import "sync"

// jobLocks hands out one mutex per job id. Entries are dropped once no
// goroutine holds or waits on them.
type jobLocks struct {
	mu sync.Mutex
	m  map[uint]*jobLock
}

type jobLock struct {
	sync.Mutex
	refs int
}

func newJobLocks() *jobLocks {
	return &jobLocks{m: make(map[uint]*jobLock)}
}

// lock blocks until the caller owns id and returns the matching unlock.
func (l *jobLocks) lock(id uint) func() {
	l.mu.Lock()
	jl, ok := l.m[id]
	if !ok {
		jl = &jobLock{}
		l.m[id] = jl
	}
	jl.refs++
	l.mu.Unlock()

	jl.Lock()
	return func() {
		jl.Unlock()

		l.mu.Lock()
		jl.refs--
		if jl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func (l *jobLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
