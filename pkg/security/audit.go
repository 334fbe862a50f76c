package security

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/oigbridge/oigbridge/pkg/log"
)

// auditTag is the fixed marker in every failure record. External watchers
// (fail2ban) match on it, so the format must stay stable.
const auditTag = "oig-bridge-auth"

const auditTimeLayout = "2006-01-02 15:04:05"

// AuditLog writes single-line authentication failure records for
// consumption by an external intrusion-prevention watcher.
type AuditLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewAuditLog returns an audit log writing to w.
func NewAuditLog(w io.Writer) *AuditLog {
	return &AuditLog{
		w:   w,
		now: time.Now,
	}
}

// AuthFailure appends one failure record:
//
//	<timestamp>: oig-bridge-auth: FAILED for user [<email>] from IP [<ip>]
func (a *AuditLog) AuthFailure(email, clientIP string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	line := fmt.Sprintf("%s: %s: FAILED for user [%s] from IP [%s]\n",
		a.now().Format(auditTimeLayout), auditTag, email, clientIP)
	if _, err := a.w.Write([]byte(line)); err != nil {
		ctx := context.Background()
		log.Ctx(ctx).WarnContext(ctx, "failed to write audit record", slog.Any("error", err))
	}
}

// Configured sets up the whitelist, rate limiter and audit log based on
// flags.
func Configured() (*Whitelist, *RateLimiter, *AuditLog) {
	whitelistPath := lflag.String("whitelist-path", "whitelist.txt", "Path to the newline-delimited email whitelist")
	auditPath := lflag.String("auth-failure-log", "", "Path to the auth-failure audit log (empty logs to stderr)")

	wl := &Whitelist{}
	audit := NewAuditLog(os.Stderr)
	limiter := NewRateLimiter()

	lflag.Do(func() {
		wl.load(*whitelistPath)

		if *auditPath != "" {
			f, err := os.OpenFile(*auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				ctx := context.Background()
				log.Ctx(ctx).WarnContext(ctx, "failed to open audit log, falling back to stderr",
					slog.String("path", *auditPath), slog.Any("error", err))
			} else {
				audit.w = f
			}
		}
	})

	return wl, limiter, audit
}
