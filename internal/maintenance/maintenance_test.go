package maintenance

import (
	"testing"
	"time"

	"corpsite/internal/models"
)

func strPtr(s string) *string { return &s }

func TestDecide(t *testing.T) {
	ends := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	active := &models.MaintenanceSettings{
		IsActive:   true,
		Message:    strPtr("Upgrading servers"),
		AllowedIPs: []string{"203.0.113.7", "10.0.0.0/8"},
		EndsAt:     &ends,
	}

	tests := []struct {
		name     string
		settings *models.MaintenanceSettings
		ip       string
		wantHold bool
	}{
		{"nil settings pass", nil, "198.51.100.1", false},
		{"inactive passes", &models.MaintenanceSettings{IsActive: false}, "198.51.100.1", false},
		{"inactive ignores allow-list", &models.MaintenanceSettings{AllowedIPs: []string{"1.1.1.1"}}, "198.51.100.1", false},
		{"active holds stranger", active, "198.51.100.1", true},
		{"active passes exact match", active, "203.0.113.7", false},
		{"active passes cidr match", active, "10.20.30.40", false},
		{"active holds near miss", active, "203.0.113.8", true},
		{"active holds unparseable ip", active, "not-an-ip", true},
		{"active holds empty ip", active, "", true},
		{"active with empty allow-list", &models.MaintenanceSettings{IsActive: true}, "203.0.113.7", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.settings, tt.ip)
			if d.Hold != tt.wantHold {
				t.Errorf("Decide(%q).Hold = %v, want %v", tt.ip, d.Hold, tt.wantHold)
			}
		})
	}
}

func TestDecideHoldingContent(t *testing.T) {
	ends := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	d := Decide(&models.MaintenanceSettings{IsActive: true, Message: strPtr("Back at six"), EndsAt: &ends}, "192.0.2.1")
	if d.Message != "Back at six" {
		t.Errorf("Message = %q, want %q", d.Message, "Back at six")
	}
	if d.EndsAt == nil || !d.EndsAt.Equal(ends) {
		t.Errorf("EndsAt = %v, want %v", d.EndsAt, ends)
	}

	d = Decide(&models.MaintenanceSettings{IsActive: true, Message: strPtr("   ")}, "192.0.2.1")
	if d.Message != DefaultMessage {
		t.Errorf("blank message: got %q, want default", d.Message)
	}
	if d.EndsAt != nil {
		t.Errorf("EndsAt = %v, want nil", d.EndsAt)
	}
}

func TestAllowed(t *testing.T) {
	list := []string{" 192.0.2.10 ", "2001:db8::1", "198.51.100.0/24", "fd00::/8", "garbage", "10.0.0.0/33", ""}

	tests := []struct {
		ip   string
		want bool
	}{
		{"192.0.2.10", true},
		{"192.0.2.11", false},
		{"::ffff:192.0.2.10", true},
		{"2001:db8::1", true},
		{"2001:db8::2", false},
		{"198.51.100.255", true},
		{"198.51.101.0", false},
		{"::ffff:198.51.100.4", true},
		{"fd12:3456::1", true},
		{"fe80::1%eth0", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := Allowed(list, tt.ip); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestAllowedMappedPrefix(t *testing.T) {
	if !Allowed([]string{"::ffff:10.0.0.0/104"}, "10.1.2.3") {
		t.Error("IPv4-mapped prefix should match plain IPv4 address")
	}
}

// TestApplyStartedAt walks the toggle sequence off -> on -> on -> off -> on
// and checks the activation timestamp at each step.
func TestApplyStartedAt(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)
	t3 := t0.Add(3 * time.Hour)

	s := Apply(nil, Update{IsActive: false}, t0)
	if s.StartedAt != nil {
		t.Fatalf("inactive from scratch: StartedAt = %v, want nil", s.StartedAt)
	}

	s = Apply(&s, Update{IsActive: true, Message: strPtr("Upgrade")}, t1)
	if s.StartedAt == nil || !s.StartedAt.Equal(t1) {
		t.Fatalf("false->true: StartedAt = %v, want %v", s.StartedAt, t1)
	}

	s = Apply(&s, Update{IsActive: true, Message: strPtr("Upgrade, longer")}, t2)
	if !s.StartedAt.Equal(t1) {
		t.Fatalf("true->true: StartedAt = %v, want unchanged %v", s.StartedAt, t1)
	}
	if *s.Message != "Upgrade, longer" {
		t.Errorf("Message = %q, want updated", *s.Message)
	}

	s = Apply(&s, Update{IsActive: false}, t2)
	if s.IsActive {
		t.Fatal("true->false: still active")
	}
	if s.StartedAt == nil || !s.StartedAt.Equal(t1) {
		t.Fatalf("true->false: StartedAt = %v, want retained %v", s.StartedAt, t1)
	}

	s = Apply(&s, Update{IsActive: true}, t3)
	if !s.StartedAt.Equal(t3) {
		t.Fatalf("re-activation: StartedAt = %v, want %v", s.StartedAt, t3)
	}
	if !s.UpdatedAt.Equal(t3) {
		t.Errorf("UpdatedAt = %v, want %v", s.UpdatedAt, t3)
	}
}

func TestApplyDoesNotMutateCurrent(t *testing.T) {
	current := &models.MaintenanceSettings{IsActive: false, AllowedIPs: []string{"192.0.2.1"}}
	_ = Apply(current, Update{IsActive: true, AllowedIPs: []string{"192.0.2.2"}}, time.Now())
	if current.IsActive || current.StartedAt != nil || current.AllowedIPs[0] != "192.0.2.1" {
		t.Errorf("Apply mutated current settings: %+v", current)
	}
}

func TestApplyNormalizesAllowList(t *testing.T) {
	s := Apply(nil, Update{AllowedIPs: []string{" 192.0.2.1 ", "", "192.0.2.1", "10.0.0.0/8"}}, time.Now())
	want := []string{"192.0.2.1", "10.0.0.0/8"}
	if len(s.AllowedIPs) != len(want) {
		t.Fatalf("AllowedIPs = %v, want %v", s.AllowedIPs, want)
	}
	for i := range want {
		if s.AllowedIPs[i] != want[i] {
			t.Errorf("AllowedIPs[%d] = %q, want %q", i, s.AllowedIPs[i], want[i])
		}
	}
}

func TestValidateAllowList(t *testing.T) {
	tests := []struct {
		name    string
		list    []string
		wantErr bool
	}{
		{"empty", nil, false},
		{"addresses and prefixes", []string{"192.0.2.1", "2001:db8::/32", " 10.0.0.0/8 ", ""}, false},
		{"hostname", []string{"office.example.com"}, true},
		{"bad prefix length", []string{"10.0.0.0/40"}, true},
		{"wildcard", []string{"10.0.*.*"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAllowList(tt.list)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAllowList(%v) error = %v, wantErr %v", tt.list, err, tt.wantErr)
			}
		})
	}
}
