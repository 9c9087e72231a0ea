package ssl

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// We use this environment variable to control trace logging.  It should be
// a comma-separated list of trace tags (see below) or "*" to enable all
// tracing.  This is developer tracing; operational diagnostics go through
// the Sink.
const traceConfigVar = "LIGHTTPD_SSL_LOG"

// Pre-defined trace tags
const (
	traceTypeIO      = "io"
	traceTypeSession = "session"
	traceTypeEngine  = "engine"
)

var (
	traceFunction = log.Printf
	traceAll      = false
	traceSettings = map[string]bool{}
)

func init() {
	parseTraceEnv(os.Environ())
}

func parseTraceEnv(env []string) {
	for _, stmt := range env {
		if strings.HasPrefix(stmt, traceConfigVar+"=") {
			val := stmt[len(traceConfigVar)+1:]

			if val == "*" {
				traceAll = true
			} else {
				for _, t := range strings.Split(val, ",") {
					traceSettings[t] = true
				}
			}
		}
	}
}

func tracef(tag string, format string, args ...interface{}) {
	if traceAll || traceSettings[tag] {
		fullFormat := fmt.Sprintf("[%s] %s", tag, format)
		traceFunction(fullFormat, args...)
	}
}
