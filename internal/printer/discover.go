package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.bug.st/serial/enumerator"
)

// ErrNotFound reports that no enumerated port answered the probe.
var ErrNotFound = errors.New("no responding printer found")

// probeTimeout is the per-port reply wait during discovery, kept short
// so a machine full of silent ports does not stall the scan.
const probeTimeout = time.Second

// PortInfo describes an enumerated serial port.
type PortInfo struct {
	Name   string
	USB    bool
	VID    string
	PID    string
	Serial string
}

// ListPorts enumerates serial ports with their USB metadata, sorted by
// device name.
func ListPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		out = append(out, PortInfo{
			Name:   p.Name,
			USB:    p.IsUSB,
			VID:    p.VID,
			PID:    p.PID,
			Serial: p.SerialNumber,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Discover probes every enumerated port with a readiness query and
// returns the first one a printer answers on.
func Discover(ctx context.Context) (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, info := range ports {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		slog.Debug("probing port", "port", info.Name)
		probe := New(info.Name)
		probe.timeout = probeTimeout
		readiness, err := probe.Readiness(ctx)
		if err != nil {
			slog.Debug("no printer", "port", info.Name, "error", err)
			continue
		}
		slog.Info("printer answered", "port", info.Name, "readiness", readiness.String())
		return info.Name, nil
	}
	return "", ErrNotFound
}
