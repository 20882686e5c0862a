// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// MaintenanceSettings is the single-row maintenance configuration.
// The table enforces that at most one row exists.
type MaintenanceSettings struct {
	IsActive   bool       `json:"is_active"`
	Message    *string    `json:"message,omitempty"`
	AllowedIPs []string   `json:"allowed_ips"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
