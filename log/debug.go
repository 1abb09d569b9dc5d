package log

import (
	hclog "github.com/hashicorp/go-hclog"
)

// EnableDebug raises the shared logger to trace level. The TRACE
// environment variable does the same without touching flags.
func EnableDebug() {
	L.SetLevel(hclog.Trace)
}
