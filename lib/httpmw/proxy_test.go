// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.10 ", "2001:db8::/32"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.0.2.10", true},
		{"192.0.2.11", false},
		{"::ffff:10.0.0.1", true},
		{"2001:db8::1", true},
		{"not-an-ip", false},
	}
	for _, test := range tests {
		if got := proxies.Contains(test.ip); got != test.want {
			t.Errorf("Contains(%q) = %v, want %v", test.ip, got, test.want)
		}
	}

	if _, err := ParseTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Error("invalid prefix accepted")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.internal"}); err == nil {
		t.Error("hostname accepted")
	}
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		proxies   TrustedProxies
		remote    string
		forwarded []string
		realIP    string
		want      string
	}{
		{"no proxies trusted", nil, "10.0.0.2:1", []string{"198.51.100.1"}, "", "10.0.0.2"},
		{"untrusted remote", proxies, "203.0.113.5:1", []string{"198.51.100.1"}, "", "203.0.113.5"},
		{"single hop", proxies, "10.0.0.2:1", []string{"198.51.100.1"}, "", "198.51.100.1"},
		{"client-written hops ignored", proxies, "10.0.0.2:1", []string{"1.1.1.1, 198.51.100.1"}, "", "198.51.100.1"},
		{"proxy chain", proxies, "10.0.0.2:1", []string{"198.51.100.1, 10.0.0.9"}, "", "198.51.100.1"},
		{"repeated headers", proxies, "10.0.0.2:1", []string{"1.1.1.1", "198.51.100.1"}, "", "198.51.100.1"},
		{"garbage hop", proxies, "10.0.0.2:1", []string{"198.51.100.1, nonsense"}, "", "10.0.0.2"},
		{"all hops trusted", proxies, "10.0.0.2:1", []string{"10.0.0.7, 10.0.0.8"}, "", "10.0.0.7"},
		{"real ip from proxy", proxies, "10.0.0.2:1", nil, "198.51.100.3", "198.51.100.3"},
		{"real ip from client", proxies, "203.0.113.5:1", nil, "198.51.100.3", "203.0.113.5"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = test.remote
			for _, value := range test.forwarded {
				request.Header.Add("X-Forwarded-For", value)
			}
			if test.realIP != "" {
				request.Header.Set("X-Real-IP", test.realIP)
			}
			if got := test.proxies.ClientIP(request); got != test.want {
				t.Errorf("ClientIP = %q, want %q", got, test.want)
			}
		})
	}
}
