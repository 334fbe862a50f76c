package security

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/oigbridge/oigbridge/pkg/log"
)

// Whitelist is a static set of permitted account emails loaded from a
// newline-delimited file. Lookup is case-insensitive and the set is
// immutable after load. A missing file fails closed: nobody is allowed.
type Whitelist struct {
	path   string
	emails map[string]struct{}
}

// NewWhitelist loads the whitelist from the given file. Anything after a
// '#' on a line is a comment; blank lines are skipped.
func NewWhitelist(path string) *Whitelist {
	w := &Whitelist{}
	w.load(path)
	return w
}

func (w *Whitelist) load(path string) {
	w.path = path
	w.emails = make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		ctx := context.Background()
		if errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).WarnContext(ctx, "whitelist file not found, no users are permitted", slog.String("path", path))
		} else {
			log.Ctx(ctx).WarnContext(ctx, "failed to load whitelist, no users are permitted", slog.String("path", path), slog.Any("error", err))
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w.emails[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		ctx := context.Background()
		log.Ctx(ctx).WarnContext(ctx, "error reading whitelist", slog.String("path", path), slog.Any("error", err))
	}
}

// IsAllowed reports whether the email is on the whitelist. Empty emails
// are never allowed.
func (w *Whitelist) IsAllowed(email string) bool {
	if email == "" {
		return false
	}
	_, ok := w.emails[strings.ToLower(email)]
	return ok
}
