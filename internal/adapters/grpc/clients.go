package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

type contentRegistryClient struct{ endpoint string }

// NewContentRegistryClient resolves content refs against the catalog
// service. Endpoints containing "fail" simulate an unreachable upstream;
// refs prefixed "missing:" resolve as unknown.
func NewContentRegistryClient(endpoint string) ports.ContentRegistry {
	return &contentRegistryClient{endpoint: endpoint}
}

func (c *contentRegistryClient) Exists(_ context.Context, contentRef string) (bool, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return false, errors.New("content registry upstream unavailable")
	}
	if strings.HasPrefix(contentRef, "missing:") {
		return false, nil
	}
	return true, nil
}

type financeLedgerClient struct{ endpoint string }

// NewFinanceLedgerClient talks to the platform ledger. Endpoints containing
// "fail" simulate an unreachable ledger; accounts prefixed "broke:" refuse
// every movement.
func NewFinanceLedgerClient(endpoint string) ports.AssetLedger {
	return &financeLedgerClient{endpoint: endpoint}
}

func (c *financeLedgerClient) TransferFrom(_ context.Context, from, _ string, amount int64) (bool, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return false, errors.New("finance ledger upstream unavailable")
	}
	if amount <= 0 {
		return false, nil
	}
	if strings.HasPrefix(from, "broke:") {
		return false, nil
	}
	return true, nil
}

func (c *financeLedgerClient) Transfer(_ context.Context, to string, amount int64) (bool, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return false, errors.New("finance ledger upstream unavailable")
	}
	if amount <= 0 {
		return false, nil
	}
	if strings.HasPrefix(to, "broke:") {
		return false, nil
	}
	return true, nil
}
