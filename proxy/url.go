package proxy

import (
	"fmt"
	"net"
	nurl "net/url"
	"strconv"
	"strings"
)

// FromURL creates a client from a postgres connection string. The proxy
// endpoint is derived from the database hostname as "api.<hostname>" unless
// overridden with the "proxy" option, which accepts a bare hostname,
// "host:port" or a full "http(s)://host[:port]" url. A plain http proxy is
// reached over an unencrypted connection - useful for proxies run locally.
// The "proxy" option is stripped from the forwarded connection string.
func FromURL(url string, opts ...Option) (*Client, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("unexpected connection string scheme: %q", u.Scheme)
	}

	host, port, secure, err := proxyTarget(u)
	if err != nil {
		return nil, err
	}

	options := []Option{WithPort(port)}
	if !secure {
		options = append(options, WithDialer(&net.Dialer{}))
	}
	options = append(options, opts...)

	return New(u.String(), host, options...), nil
}

// proxyTarget resolves the proxy endpoint for a connection string and strips
// the "proxy" option so it is not forwarded to the database.
func proxyTarget(u *nurl.URL) (host string, port int, secure bool, err error) {
	host = "api." + u.Hostname()
	port = DefaultPort
	secure = true

	q := u.Query()
	override := q.Get("proxy")
	if override == "" {
		return host, port, secure, nil
	}

	q.Del("proxy")
	u.RawQuery = q.Encode()

	if strings.Contains(override, "://") {
		ou, err := nurl.Parse(override)
		if err != nil {
			return "", 0, false, fmt.Errorf("could not parse proxy option: %w", err)
		}

		host = ou.Hostname()
		secure = ou.Scheme != "http"
		port = DefaultPort
		if !secure {
			port = 80
		}
		if ou.Port() != "" {
			port, err = strconv.Atoi(ou.Port())
			if err != nil {
				return "", 0, false, fmt.Errorf("could not parse proxy port: %w", err)
			}
		}

		return host, port, secure, nil
	}

	h, p, err := net.SplitHostPort(override)
	if err != nil {
		return override, port, secure, nil
	}

	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, false, fmt.Errorf("could not parse proxy port: %w", err)
	}

	return h, port, secure, nil
}
