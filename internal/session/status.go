package session

import (
	"fmt"

	"wagate/internal/models"
)

// statusFindMap translates every raw connection-status signal the
// transport emits into a canonical lifecycle status. The table must stay
// total over the transport's documented signal set; an unknown signal is
// a contract violation and is rejected, never silently defaulted.
var statusFindMap = map[string]models.Status{
	"autocloseCalled":    models.StatusClosed,
	"desconnectedMobile": models.StatusDisconnected,
	"isLogged":           models.StatusConnected,
	"notLogged":          models.StatusDisconnected,
	"browserClose":       models.StatusClosed,
	"qrReadSuccess":      models.StatusConnected,
	"qrReadFail":         models.StatusDisconnected,
	"qrReadError":        models.StatusDisconnected,
	"qrAwaitingRead":     models.StatusQRCode,
	"inChat":             models.StatusConnected,
	"unavailable":        models.StatusDisconnected,
	"available":          models.StatusConnected,
	"deleteToken":        models.StatusDisconnected,
	"serverClose":        models.StatusDisconnected,
	"phoneNotConnected":  models.StatusDisconnected,
}

// MapStatus returns the canonical status for a raw transport signal.
func MapStatus(signal string) (models.Status, error) {
	status, ok := statusFindMap[signal]
	if !ok {
		return "", fmt.Errorf("unmapped status signal %q", signal)
	}
	return status, nil
}

// IsTerminalTrigger reports whether receiving signal must force the owning
// session to CLOSED regardless of the mapped status. Exactly these two
// signals are terminal; widening the set needs confirmation against the
// transport library's documentation.
func IsTerminalTrigger(signal string) bool {
	return signal == "autocloseCalled" || signal == "desconnectedMobile"
}
