// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package maintenance decides, per request, whether a visitor gets the
// normal public response or the holding page while the site is in
// maintenance mode.
package maintenance

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"corpsite/internal/models"
)

// DefaultMessage is shown when the operator did not set one.
const DefaultMessage = "We are performing scheduled maintenance. Please check back soon."

// Decision is the outcome of evaluating the gate for one requester.
type Decision struct {
	Hold    bool       `json:"hold"`
	Message string     `json:"message,omitempty"`
	EndsAt  *time.Time `json:"ends_at,omitempty"`
}

// Decide evaluates the gate: inactive settings pass everyone, active settings
// pass only allow-listed addresses and hold everyone else. A nil settings
// value is treated as inactive.
func Decide(s *models.MaintenanceSettings, ip string) Decision {
	if s == nil || !s.IsActive {
		return Decision{}
	}
	if Allowed(s.AllowedIPs, ip) {
		return Decision{}
	}

	msg := DefaultMessage
	if s.Message != nil && strings.TrimSpace(*s.Message) != "" {
		msg = *s.Message
	}
	return Decision{Hold: true, Message: msg, EndsAt: s.EndsAt}
}

// Allowed reports whether ip matches an entry of the allow-list. Entries are
// single addresses or CIDR prefixes. IPv4-mapped IPv6 addresses match their
// IPv4 form. Unparseable entries and addresses never match.
func Allowed(list []string, ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap().WithZone("")

	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				continue
			}
			if prefix.Addr().Is4In6() && prefix.Bits() >= 96 {
				prefix = netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits()-96)
			}
			if prefix.Contains(addr) {
				return true
			}
			continue
		}
		other, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		if other.Unmap() == addr {
			return true
		}
	}
	return false
}

// Update is an operator change to the maintenance settings.
type Update struct {
	IsActive   bool
	Message    *string
	AllowedIPs []string
	EndsAt     *time.Time
}

// Apply merges an update into the current settings and returns the new
// record. Turning the gate on stamps StartedAt with now. Turning it off, or
// saving while it stays on, keeps the previous StartedAt.
func Apply(current *models.MaintenanceSettings, u Update, now time.Time) models.MaintenanceSettings {
	var next models.MaintenanceSettings
	if current != nil {
		next = *current
	}

	wasActive := current != nil && current.IsActive
	if u.IsActive && !wasActive {
		t := now.UTC()
		next.StartedAt = &t
	}

	next.IsActive = u.IsActive
	next.Message = u.Message
	next.AllowedIPs = normalizeList(u.AllowedIPs)
	next.EndsAt = u.EndsAt
	next.UpdatedAt = now.UTC()
	return next
}

// ValidateAllowList returns an error naming the first entry that is neither
// an IP address nor a CIDR prefix.
func ValidateAllowList(list []string) error {
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if _, err := netip.ParsePrefix(entry); err != nil {
				return fmt.Errorf("invalid allow-list entry %q", entry)
			}
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("invalid allow-list entry %q", entry)
		}
	}
	return nil
}

// normalizeList trims entries and drops blanks and duplicates, keeping order.
func normalizeList(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, entry)
	}
	return out
}
