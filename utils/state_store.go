package utils

import (
	"context"
	"sync"
	"time"
)

// OAuth states are single use and short lived. Redis carries them so a
// restart mid-login does not strand the user; memory is the fallback.

const oauthStateTTL = 10 * time.Minute

var (
	memStates   = map[string]time.Time{}
	memStatesMu sync.Mutex
)

// StoreOAuthState records a state nonce for later callback verification.
func StoreOAuthState(state string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rc.Set(ctx, "oauth:state:"+state, "1", oauthStateTTL).Err() == nil {
			return
		}
	}
	memStatesMu.Lock()
	memStates[state] = time.Now().Add(oauthStateTTL)
	memStatesMu.Unlock()
}

// ConsumeOAuthState reports whether the state was issued by us, removing it
// so it cannot be replayed.
func ConsumeOAuthState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Del(ctx, "oauth:state:"+state).Result(); err == nil {
			return n > 0
		}
	}
	memStatesMu.Lock()
	defer memStatesMu.Unlock()
	exp, ok := memStates[state]
	if !ok {
		return false
	}
	delete(memStates, state)
	return time.Now().Before(exp)
}
