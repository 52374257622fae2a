package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// HealthPath is the server's liveness endpoint.
const HealthPath = "/health"

// Health is the body served at HealthPath.
type Health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// DiscoveredServer represents an air-server found on the network
type DiscoveredServer struct {
	IP          string `json:"ip"`
	Port        int    `json:"port"`
	Connections int    `json:"connections"`
}

// Addr returns the server's host:port.
func (d DiscoveredServer) Addr() string {
	return net.JoinHostPort(d.IP, fmt.Sprint(d.Port))
}

// GetLocalIP returns the primary local IP address
func GetLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// ScanLAN checks every address of the local /24 for a server on port.
// Results are sorted by IP.
func ScanLAN(ctx context.Context, port int) ([]DiscoveredServer, error) {
	localIP, err := GetLocalIP()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IP: %w", err)
	}

	// Parse the local IP to get the subnet
	parts := strings.Split(localIP, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid IP address format: %s", localIP)
	}

	subnet := fmt.Sprintf("%s.%s.%s", parts[0], parts[1], parts[2])

	var servers []DiscoveredServer
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Scan IPs 1-254 in the subnet
	for i := 1; i <= 254; i++ {
		ip := fmt.Sprintf("%s.%d", subnet, i)
		if ip == localIP {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s, ok := CheckServer(ctx, ip, port); ok {
				mu.Lock()
				servers = append(servers, s)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	sort.Slice(servers, func(i, j int) bool {
		return net.ParseIP(servers[i].IP).To4()[3] < net.ParseIP(servers[j].IP).To4()[3]
	})
	return servers, ctx.Err()
}

// CheckServer checks whether an air-server answers on ip:port.
func CheckServer(ctx context.Context, ip string, port int) (DiscoveredServer, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	healthURL := "http://" + net.JoinHostPort(ip, fmt.Sprint(port)) + HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return DiscoveredServer{}, false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return DiscoveredServer{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DiscoveredServer{}, false
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status != "ok" {
		return DiscoveredServer{}, false
	}
	return DiscoveredServer{IP: ip, Port: port, Connections: health.Connections}, true
}

// GetLocalIPs returns all available local IPv4 addresses
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip = ip.To4()
			if ip == nil {
				continue // not an ipv4 address
			}
			ips = append(ips, ip.String())
		}
	}
	return ips, nil
}
