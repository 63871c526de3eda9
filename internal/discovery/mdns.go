// Package discovery advertises the backend on the local network and finds it
// from the panel.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

func init() {
	// The mdns package logs every closed client through the standard logger.
	log.SetOutput(io.Discard)
}

const (
	ServiceType = "_eatsdash._tcp"
	Domain      = "local."

	versionField = "v="
	pathField    = "path="
)

// Backend is one discovered backend.
type Backend struct {
	Name    string
	Host    string
	Port    int
	Version string
}

// URL is the base URL the client should use.
func (b Backend) URL() string {
	return "http://" + net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

type Advertiser struct {
	server *mdns.Server
	log    *zap.Logger
}

// Advertise announces the backend listening on port until Stop is called.
func Advertise(instance string, port int, version string, logger *zap.Logger) (*Advertiser, error) {
	host, err := getOutboundIP()
	if err != nil {
		host = "127.0.0.1"
	}

	service, err := mdns.NewMDNSService(
		instance,
		ServiceType,
		Domain,
		"",
		port,
		[]net.IP{net.ParseIP(host)},
		[]string{versionField + version, pathField + "/v1"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{
		Zone:              service,
		LogEmptyResponses: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS server: %w", err)
	}

	logger.Info("advertising backend", zap.String("service", ServiceType), zap.String("host", host), zap.Int("port", port))
	return &Advertiser{server: server, log: logger}, nil
}

func (a *Advertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	if err := a.server.Shutdown(); err != nil {
		a.log.Debug("mDNS shutdown", zap.Error(err))
	}
}

// Browse queries once for backends and returns those found before timeout or
// ctx ends.
func Browse(ctx context.Context, timeout time.Duration, logger *zap.Logger) ([]Backend, error) {
	entriesCh := make(chan *mdns.ServiceEntry, 10)
	done := make(chan []Backend, 1)

	go func() {
		var found []Backend
		seen := map[string]bool{}
		for entry := range entriesCh {
			b, ok := entryToBackend(entry)
			if !ok || seen[b.URL()] {
				continue
			}
			seen[b.URL()] = true
			found = append(found, b)
		}
		done <- found
	}()

	params := &mdns.QueryParam{
		Service:             ServiceType,
		Domain:              Domain,
		Timeout:             timeout,
		Entries:             entriesCh,
		WantUnicastResponse: false,
		DisableIPv6:         true,
	}
	err := mdns.QueryContext(ctx, params)
	close(entriesCh)
	found := <-done

	if err != nil && !strings.Contains(err.Error(), "not supported") {
		logger.Warn("mDNS query failed", zap.Error(err))
		if len(found) == 0 {
			return nil, fmt.Errorf("mDNS query failed: %w", err)
		}
	}
	return found, nil
}

// First returns the URL of the first backend found, or "" when none answered.
func First(ctx context.Context, timeout time.Duration, logger *zap.Logger) (string, error) {
	found, err := Browse(ctx, timeout, logger)
	if err != nil || len(found) == 0 {
		return "", err
	}
	return found[0].URL(), nil
}

func entryToBackend(entry *mdns.ServiceEntry) (Backend, bool) {
	if entry == nil {
		return Backend{}, false
	}

	var host string
	if entry.AddrV4 != nil {
		host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		host = entry.AddrV6.String()
	}
	if host == "" || entry.Port == 0 {
		return Backend{}, false
	}

	b := Backend{Name: entry.Name, Host: host, Port: entry.Port}
	for _, txt := range entry.InfoFields {
		if strings.HasPrefix(txt, versionField) {
			b.Version = strings.TrimPrefix(txt, versionField)
		}
	}
	return b, true
}

func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
