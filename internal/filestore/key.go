package filestore

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyRoot = "code"

var whitespaceRegex = regexp.MustCompile(`\s+`)

// BuildKey returns code/<YYYY-MM-DD>/<uuid><ext>, taking ext from the cleaned file name.
func BuildKey(fileName string, now time.Time) string {
	clean := strings.ToLower(whitespaceRegex.ReplaceAllString(strings.TrimSpace(fileName), "-"))
	ext := filepath.Ext(clean)
	return path.Join(keyRoot, now.UTC().Format("2006-01-02"), uuid.NewString()+ext)
}

// ResolveKey turns a key or blob URL into a store key. URLs under one of bases lose the base;
// any other http(s) URL yields its path without the leading slash.
func ResolveKey(keyOrURL string, bases ...string) string {
	value := strings.TrimSpace(keyOrURL)
	if value == "" {
		return ""
	}
	for _, base := range bases {
		base = strings.TrimSuffix(strings.TrimSpace(base), "/")
		if base != "" && strings.HasPrefix(value, base+"/") {
			return strings.TrimPrefix(value, base+"/")
		}
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		u, err := url.Parse(value)
		if err != nil {
			return ""
		}
		return strings.TrimPrefix(u.Path, "/")
	}
	return strings.TrimPrefix(value, "/")
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
