//go:build noprom

package metrics

import "net/http"

// When built with -tags noprom, metrics stay on the no-op recorder.
func enablePrometheus(addr string) (*http.Server, error) { return nil, nil }
