// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpmw

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies is the set of reverse proxies whose forwarding
// headers are believed. The zero value trusts nobody.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies parses CIDR prefixes or bare addresses.
func ParseTrustedProxies(values []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if prefix, err := netip.ParsePrefix(value); err == nil {
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is not an address or CIDR prefix", value)
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, nil
}

// Contains reports whether ip is a trusted proxy.
func (proxies TrustedProxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP resolves the client address of r. When the connection
// comes from a trusted proxy, X-Forwarded-For is walked from the right
// and the first hop that is not itself a trusted proxy is the client;
// entries left of it were written by the client and are never used.
// X-Real-IP is honored only from a trusted proxy that sent no
// X-Forwarded-For. Otherwise the remote address is the client.
func (proxies TrustedProxies) ClientIP(r *http.Request) string {
	remote := ClientIP(r)
	if !proxies.Contains(remote) {
		return remote
	}

	hops := forwardedHops(r.Header.Values("X-Forwarded-For"))
	for i := len(hops) - 1; i >= 0; i-- {
		if !proxies.Contains(hops[i]) {
			if _, err := netip.ParseAddr(hops[i]); err != nil {
				return remote
			}
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}
	return remote
}

// forwardedHops flattens repeated X-Forwarded-For headers into one
// ordered list of non-empty entries.
func forwardedHops(headers []string) []string {
	var hops []string
	for _, header := range headers {
		for hop := range strings.SplitSeq(header, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
