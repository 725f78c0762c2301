package session

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL is a cluster address split into the parts the clients rewrite.
// Port 0 means no explicit port.
type URL struct {
	Scheme   string
	Host     string
	Path     string
	Query    string
	Fragment string
	Port     int
}

// ParseURL parses scheme://host[:port]/path?query#fragment.
func ParseURL(s string) (URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URL{}, fmt.Errorf("parsing url %q: %w", s, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return URL{}, fmt.Errorf("url %q must have a scheme and a host", s)
	}

	parsed := URL{
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Path:     u.EscapedPath(),
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return URL{}, fmt.Errorf("invalid port in url %q: %w", s, err)
		}
		parsed.Port = port
	}
	return parsed, nil
}

// MustParseURL is ParseURL for constant inputs.
func MustParseURL(s string) URL {
	u, err := ParseURL(s)
	if err != nil {
		panic(err)
	}
	return u
}

// NetLoc returns host[:port].
func (u URL) NetLoc() string {
	if u.Port == 0 {
		return u.Host
	}
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// String renders the URL. The path is appended literally so "//" survives.
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.NetLoc())
	if u.Path != "" {
		if !strings.HasPrefix(u.Path, "/") {
			b.WriteByte('/')
		}
		b.WriteString(u.Path)
	}
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

func (u URL) WithScheme(scheme string) URL {
	u.Scheme = scheme
	return u
}

func (u URL) WithHost(host string) URL {
	u.Host = host
	return u
}

func (u URL) WithPath(path string) URL {
	u.Path = path
	return u
}

func (u URL) WithQuery(query string) URL {
	u.Query = query
	return u
}

func (u URL) WithPort(port int) URL {
	u.Port = port
	return u
}
