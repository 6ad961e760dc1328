package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyPayload   = errors.New("empty QR payload")
	ErrInvalidPayload = errors.New("unrecognized QR payload")
	ErrOutOfRange     = errors.New("device outside site geofence")
)

// ScanTarget is the site/checkpoint pair extracted from a QR payload before
// site resolution.
type ScanTarget struct {
	SiteRef    string
	LocationID string
	Checkpoint string
}

// ParseQRPayload accepts the two payload shapes in the field: the structured
// URL-style payload (`...?type=info&siteId=X&locId=Y&cpName=Z`) printed on
// current QR labels, and the legacy pipe payload (`VKS|<site>|<point>`) still
// stuck on older checkpoints.
func ParseQRPayload(raw string) (ScanTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScanTarget{}, ErrEmptyPayload
	}

	if strings.Contains(raw, "?") || strings.Contains(raw, "siteId=") {
		return parseStructuredPayload(raw)
	}

	if strings.Contains(raw, "|") {
		return parseLegacyPayload(raw)
	}

	return ScanTarget{}, fmt.Errorf("%w: %q", ErrInvalidPayload, raw)
}

func parseStructuredPayload(raw string) (ScanTarget, error) {
	query := raw
	if i := strings.Index(raw, "?"); i >= 0 {
		query = raw[i+1:]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return ScanTarget{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	target := ScanTarget{
		SiteRef:    strings.TrimSpace(values.Get("siteId")),
		LocationID: strings.TrimSpace(values.Get("locId")),
		Checkpoint: strings.TrimSpace(values.Get("cpName")),
	}
	if target.SiteRef == "" && target.LocationID == "" {
		return ScanTarget{}, fmt.Errorf("%w: no site reference in payload", ErrInvalidPayload)
	}
	if target.SiteRef == "" {
		target.SiteRef = target.LocationID
	}
	return target, nil
}

func parseLegacyPayload(raw string) (ScanTarget, error) {
	parts := strings.Split(raw, "|")
	// A pipe payload whose first segment is not VKS is a hard validation
	// failure, not a resolver concern.
	if !strings.EqualFold(strings.TrimSpace(parts[0]), "VKS") {
		return ScanTarget{}, fmt.Errorf("%w: legacy payload must start with VKS", ErrInvalidPayload)
	}
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return ScanTarget{}, fmt.Errorf("%w: legacy payload missing site segment", ErrInvalidPayload)
	}
	target := ScanTarget{SiteRef: strings.TrimSpace(parts[1])}
	if len(parts) > 2 {
		target.Checkpoint = strings.TrimSpace(parts[2])
	}
	return target, nil
}
