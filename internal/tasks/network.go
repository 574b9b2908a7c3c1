package tasks

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

// defaultProbePorts are scanned when the job configuration names none.
var defaultProbePorts = []int{22, 80, 443, 3306, 5432, 6379, 8080}

// NetworkScanner probes a target's TCP ports. It is a stand-in for a real
// scan engine behind the same Handler contract.
type NetworkScanner struct {
	Ports   []int
	Timeout time.Duration
	// dial is swapped in tests.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewNetworkScanner creates a NetworkScanner. Zero ports means the default
// port set; zero timeout means 3 seconds per probe.
func NewNetworkScanner(ports []int, timeout time.Duration) *NetworkScanner {
	if len(ports) == 0 {
		ports = defaultProbePorts
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := &net.Dialer{Timeout: timeout}
	return &NetworkScanner{Ports: ports, Timeout: timeout, dial: d.DialContext}
}

func (s *NetworkScanner) Name() string { return "network" }

func (s *NetworkScanner) Execute(ctx context.Context, _ uuid.UUID, target Target) (Result, error) {
	var findings []models.Finding
	reachable := false

	for _, port := range s.Ports {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		addr := net.JoinHostPort(target.Address, fmt.Sprintf("%d", port))
		conn, err := s.dial(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		conn.Close()
		reachable = true
		findings = append(findings, models.Finding{
			Title:    fmt.Sprintf("Open TCP port %d", port),
			Severity: models.SeverityInfo,
			Detail:   addr,
		})
	}

	status := models.TargetStatusOK
	if !reachable {
		status = models.TargetStatusUnreachable
	}
	return Result{Status: status, Findings: findings}, nil
}
