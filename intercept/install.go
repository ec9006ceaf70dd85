package intercept

import (
	"net/http"
	"sync"
)

var installMu sync.Mutex

// Install wraps http.DefaultTransport with guard enforcement. Install is
// idempotent: any number of calls, from any number of goroutines, leaves
// exactly one wrapper layer in place. Hosts call it once during process
// initialization, before any plugin code runs.
func Install(opts ...Option) {
	installMu.Lock()
	defer installMu.Unlock()
	if _, ok := http.DefaultTransport.(*GuardTransport); ok {
		return
	}
	http.DefaultTransport = Transport(http.DefaultTransport, opts...)
}
