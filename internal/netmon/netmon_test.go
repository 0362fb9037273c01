package netmon

import (
	"testing"

	"flapd/pkg/logx"
)

func TestStatusText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		st   Status
		want string
	}{
		{StatusIdle, "Idle"},
		{StatusNoSSID, "No SSID"},
		{StatusConnected, "Connected"},
		{StatusFailed, "Connection failed"},
		{StatusLost, "Connection lost"},
		{StatusDisconnected, "Disconnected"},
		{StatusUnknown, "Unknown"},
		{Status(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestStaticMonitor(t *testing.T) {
	t.Parallel()
	var m Monitor = Static{Line: "homenet 192.168.1.20"}
	if m.Status() != StatusConnected {
		t.Fatalf("Status = %v, want connected", m.Status())
	}
	if m.StatusLine() != "homenet 192.168.1.20" {
		t.Fatalf("StatusLine = %q", m.StatusLine())
	}
	if (Static{}).StatusLine() != "Connected" {
		t.Fatal("empty Static line should fall back to state name")
	}
}

func TestIfaceMonitorUnknownInterface(t *testing.T) {
	t.Parallel()
	m := NewIface(Config{Interface: "definitely-not-a-nic0"}, logx.Nop())
	if m.Status() != StatusUnknown {
		t.Fatalf("Status = %v, want unknown", m.Status())
	}
	if m.StatusLine() != "Unknown" {
		t.Fatalf("StatusLine = %q", m.StatusLine())
	}
	// No command configured: must be a no-op, not a crash.
	m.Reconnect()
}

func TestIfaceMonitorLoopback(t *testing.T) {
	t.Parallel()
	// Loopback is up but carries no global unicast address.
	m := NewIface(Config{Interface: "lo"}, logx.Nop())
	st := m.Status()
	if st == StatusConnected {
		t.Fatalf("loopback reported connected")
	}
}
