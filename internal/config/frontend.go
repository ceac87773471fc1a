package config

import (
	"fmt"
	"strings"
)

// Japanese front-end names accepted by g2p.japanese_frontend.
const (
	FrontendKagome  = "kagome"
	FrontendCommand = "command"
)

// NormalizeFrontend canonicalizes a front-end name. Empty selects kagome.
func NormalizeFrontend(raw string) (string, error) {
	frontend := strings.ToLower(strings.TrimSpace(raw))
	switch frontend {
	case "", FrontendKagome, "builtin":
		return FrontendKagome, nil
	case FrontendCommand, "openjtalk":
		return FrontendCommand, nil
	default:
		return "", fmt.Errorf("invalid japanese frontend %q (expected %s|%s)", raw, FrontendKagome, FrontendCommand)
	}
}
