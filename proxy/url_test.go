package proxy

import (
	nurl "net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProxyTarget(t *testing.T) {
	tests := []struct {
		name string
		url  string

		host    string
		port    int
		secure  bool
		wantErr bool
	}{
		{
			name:   "derived from hostname",
			url:    "postgresql://user:pw@ep-fancy-name-123.eu-central-1.aws.neon.tech/neondb",
			host:   "api.ep-fancy-name-123.eu-central-1.aws.neon.tech",
			port:   443,
			secure: true,
		},
		{
			name:   "bare host override",
			url:    "postgres://user:pw@db.example.com/app?proxy=gateway.example.com",
			host:   "gateway.example.com",
			port:   443,
			secure: true,
		},
		{
			name:   "host and port override",
			url:    "postgres://user:pw@db.example.com/app?proxy=gateway.example.com:8443",
			host:   "gateway.example.com",
			port:   8443,
			secure: true,
		},
		{
			name:   "http override",
			url:    "postgres://user:pw@db.example.com/app?proxy=http://127.0.0.1",
			host:   "127.0.0.1",
			port:   80,
			secure: false,
		},
		{
			name:   "http override with port",
			url:    "postgres://user:pw@db.example.com/app?proxy=http://127.0.0.1:4444",
			host:   "127.0.0.1",
			port:   4444,
			secure: false,
		},
		{
			name:   "https override with port",
			url:    "postgres://user:pw@db.example.com/app?proxy=https://gateway.example.com:8443",
			host:   "gateway.example.com",
			port:   8443,
			secure: true,
		},
		{
			name:    "garbage port",
			url:     "postgres://user:pw@db.example.com/app?proxy=gateway.example.com:eighty",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := require.New(t)

			u, err := nurl.Parse(test.url)
			r.NoError(err)

			host, port, secure, err := proxyTarget(u)
			if test.wantErr {
				r.Error(err)
				return
			}
			r.NoError(err)
			r.Equal(test.host, host)
			r.Equal(test.port, port)
			r.Equal(test.secure, secure)
		})
	}
}

func TestProxyTargetStripsOption(t *testing.T) {
	r := require.New(t)

	u, err := nurl.Parse("postgres://user:pw@db.example.com/app?proxy=http://127.0.0.1:4444&sslmode=require")
	r.NoError(err)

	_, _, _, err = proxyTarget(u)
	r.NoError(err)

	q := u.Query()
	r.Empty(q.Get("proxy"))
	r.Equal("require", q.Get("sslmode"))
}

func TestFromURLRejectsUnknownScheme(t *testing.T) {
	r := require.New(t)

	_, err := FromURL("mysql://user:pw@db.example.com/app")
	r.ErrorContains(err, "unexpected connection string scheme")
}
