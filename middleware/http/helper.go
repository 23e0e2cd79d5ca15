package middleware

import (
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

type prefixPath struct {
	prefix    string
	prefixLen int
}

// PathMatcher matches request paths against a fixed list of patterns.
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []prefixPath
	patterns []string
}

// NewPathMatcher compiles paths. Three forms are understood:
//   - "/health" matches that path only
//   - "/auth/**" matches "/auth" and everything below it
//   - "/api/*/export" is matched with path.Match
func NewPathMatcher(paths []string) *PathMatcher {
	pm := &PathMatcher{exact: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			pm.prefixes = append(pm.prefixes, prefixPath{prefix: prefix, prefixLen: len(prefix)})
		} else if strings.ContainsAny(p, "*?[") {
			pm.patterns = append(pm.patterns, p)
		} else {
			pm.exact[p] = struct{}{}
		}
	}
	return pm
}

func (pm *PathMatcher) Match(urlPath string) bool {
	if pm == nil {
		return false
	}
	if _, ok := pm.exact[urlPath]; ok {
		return true
	}

	for i := range pm.prefixes {
		pp := &pm.prefixes[i]
		switch {
		case len(urlPath) < pp.prefixLen:
		case len(urlPath) == pp.prefixLen:
			if urlPath == pp.prefix {
				return true
			}
		case urlPath[pp.prefixLen] == '/' && strings.HasPrefix(urlPath, pp.prefix):
			return true
		}
	}

	for _, p := range pm.patterns {
		if matched, _ := path.Match(p, urlPath); matched {
			return true
		}
	}
	return false
}

func shouldSkip(c *gin.Context, matcher *PathMatcher, skip func(*gin.Context) bool) bool {
	if skip != nil && skip(c) {
		return true
	}
	return matcher.Match(c.Request.URL.Path)
}
