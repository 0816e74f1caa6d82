package fetch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// scheme://host[:port]path. No userinfo, no IPv6 literals.
var urlPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*:)//([A-Za-z0-9\-.]+)(?::([0-9]+))?(.*)$`)

type target struct {
	Protocol string // "http:" or "https:", lower-cased
	Host     string
	Port     int
	Path     string // path and query, never empty
}

func parseURL(raw string) (target, error) {
	m := urlPattern.FindStringSubmatch(raw)
	if m == nil {
		return target{}, fmt.Errorf("%w: %q", ErrBadURL, raw)
	}
	t := target{Protocol: strings.ToLower(m[1]), Host: m[2], Path: m[4]}
	if m[3] != "" {
		p, err := strconv.Atoi(m[3])
		if err != nil || p <= 0 || p > 65535 {
			return target{}, fmt.Errorf("%w: port out of range in %q", ErrBadURL, raw)
		}
		t.Port = p
	} else {
		t.Port = defaultPort(t.Protocol)
	}
	if t.Path == "" {
		t.Path = "/"
	} else if t.Path[0] != '/' && t.Path[0] != '?' {
		return target{}, fmt.Errorf("%w: %q", ErrBadURL, raw)
	} else if t.Path[0] == '?' {
		t.Path = "/" + t.Path
	}
	return t, nil
}

func defaultPort(protocol string) int {
	if protocol == "https:" {
		return 443
	}
	return 80
}

func (t target) secure() bool { return t.Protocol == "https:" }
