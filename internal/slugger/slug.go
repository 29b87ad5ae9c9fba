// Package slugger derives and allocates board slugs.
package slugger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gosimple "github.com/gosimple/slug"

	"github.com/agoraboard/agora/internal/apperr"
)

const maxSlugLen = 60

// The allocator probes this many suffixed candidates before giving up
const maxProbes = 10000

var hyphenRuns = regexp.MustCompile(`-{2,}`)

// ToSlug normalizes text into the board slug alphabet: lowercase,
// every run outside [a-z0-9] collapsed to a single hyphen, no leading
// or trailing hyphens, at most 60 bytes.
func ToSlug(text string) string {
	s := gosimple.Make(text)
	// gosimple keeps underscores; the slug alphabet does not
	s = strings.ReplaceAll(s, "_", "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

// ExistsFunc reports whether a candidate slug is already claimed
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// GenerateUnique returns an unclaimed slug derived from base: the root
// slug when free, otherwise root-2, root-3, ... The existence probe is
// advisory only; the store's unique index is the authoritative guard,
// and callers retry allocation when the insert still conflicts.
func GenerateUnique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	root := ToSlug(base)
	if root == "" {
		return "", apperr.Validation("Invalid slug base")
	}

	taken, err := exists(ctx, root)
	if err != nil {
		return "", err
	}
	if !taken {
		return root, nil
	}

	for i := 2; i < maxProbes; i++ {
		candidate := fmt.Sprintf("%s-%d", root, i)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", apperr.Conflict("Unable to generate unique slug")
}
