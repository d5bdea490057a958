package sysinfo

import (
	"net"
	"runtime"
)

// SystemSample is a point-in-time host snapshot for the dashboard.
type SystemSample struct {
	MemAllocBytes uint64  `json:"mem_alloc_bytes"`
	MemSysBytes   uint64  `json:"mem_sys_bytes"`
	MemPercent    float64 `json:"mem"`
	Goroutines    int     `json:"goroutines"`
	NumCPU        int     `json:"cpus"`
	GCCycles      uint32  `json:"gc_cycles"`
}

// Sample reads process-level metrics. Demo-grade: process memory stands in
// for host memory, which is all the dashboard needs.
func Sample() SystemSample {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memPct := 0.0
	if m.Sys > 0 {
		memPct = float64(m.Alloc) / float64(m.Sys) * 100
	}

	return SystemSample{
		MemAllocBytes: m.Alloc,
		MemSysBytes:   m.Sys,
		MemPercent:    memPct,
		Goroutines:    runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GCCycles:      m.NumGC,
	}
}

// Interface describes one host NIC for the network view.
type Interface struct {
	Name  string   `json:"name"`
	MAC   string   `json:"mac,omitempty"`
	Addrs []string `json:"addrs"`
	Up    bool     `json:"up"`
}

// Interfaces enumerates host network interfaces.
func Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		entry := Interface{
			Name:  iface.Name,
			MAC:   iface.HardwareAddr.String(),
			Addrs: []string{},
			Up:    iface.Flags&net.FlagUp != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, a := range addrs {
				entry.Addrs = append(entry.Addrs, a.String())
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
