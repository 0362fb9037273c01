// Package netmon reports connectivity for the status line and performs
// reconnect attempts on behalf of the scheduler.
package netmon

import (
	"context"
	"net"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flapd/pkg/logx"
)

// Status is the connectivity state shown on the display's status line.
type Status int

const (
	StatusUnknown Status = iota
	StatusIdle
	StatusNoSSID
	StatusConnected
	StatusFailed
	StatusLost
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusNoSSID:
		return "No SSID"
	case StatusConnected:
		return "Connected"
	case StatusFailed:
		return "Connection failed"
	case StatusLost:
		return "Connection lost"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Monitor is the connectivity contract consumed by the scheduler.
type Monitor interface {
	Status() Status
	// StatusLine is the human text for the display's secondary line:
	// "<ssid> <ip>" when connected, the state name otherwise.
	StatusLine() string
	// Reconnect issues one reconnect attempt. Implementations rate-limit
	// internally; calling it every tick is fine.
	Reconnect()
}

// Config configures the interface monitor.
type Config struct {
	// Interface is the network interface to probe (e.g. "wlan0").
	Interface string
	// SSID is reported on the status line when connected.
	SSID string
	// ReconnectCmd, when set, is executed (via sh -c) on reconnect
	// attempts, e.g. "nmcli device connect wlan0".
	ReconnectCmd string
	// ReconnectEvery caps how often ReconnectCmd may run (default 30s).
	ReconnectEvery time.Duration
}

// IfaceMonitor derives connectivity from interface state: up with a
// global unicast address means connected.
type IfaceMonitor struct {
	cfg Config
	log logx.Logger

	limiter  *rate.Limiter
	everSeen bool
}

func NewIface(cfg Config, log logx.Logger) *IfaceMonitor {
	every := cfg.ReconnectEvery
	if every <= 0 {
		every = 30 * time.Second
	}
	return &IfaceMonitor{
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

func (m *IfaceMonitor) Status() Status {
	ifi, err := net.InterfaceByName(m.cfg.Interface)
	if err != nil {
		return StatusUnknown
	}
	if ifi.Flags&net.FlagUp == 0 {
		return StatusIdle
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return StatusUnknown
	}
	if ip := globalUnicast(addrs); ip != nil {
		m.everSeen = true
		return StatusConnected
	}
	if m.everSeen {
		return StatusLost
	}
	return StatusDisconnected
}

func (m *IfaceMonitor) StatusLine() string {
	st := m.Status()
	if st != StatusConnected {
		return st.String()
	}
	ip := ""
	if ifi, err := net.InterfaceByName(m.cfg.Interface); err == nil {
		if addrs, err := ifi.Addrs(); err == nil {
			if g := globalUnicast(addrs); g != nil {
				ip = g.String()
			}
		}
	}
	return strings.TrimSpace(m.cfg.SSID + " " + ip)
}

func (m *IfaceMonitor) Reconnect() {
	if strings.TrimSpace(m.cfg.ReconnectCmd) == "" {
		return
	}
	if !m.limiter.Allow() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "sh", "-c", m.cfg.ReconnectCmd).CombinedOutput()
	if err != nil {
		m.log.Warn("reconnect command failed",
			logx.Err(err), logx.String("output", strings.TrimSpace(string(out))))
		return
	}
	m.log.Info("reconnect attempted", logx.String("iface", m.cfg.Interface))
}

func globalUnicast(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ipn.IP.IsGlobalUnicast() {
			return ipn.IP
		}
	}
	return nil
}

// Static is a monitor for hosts where the network is managed elsewhere;
// it always reports connected.
type Static struct {
	Line string
}

func (s Static) Status() Status { return StatusConnected }
func (s Static) StatusLine() string {
	if s.Line == "" {
		return "Connected"
	}
	return s.Line
}
func (Static) Reconnect() {}
