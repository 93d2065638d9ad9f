package notify

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/gex-monitor/internal/alert"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

// FormatAlertMessage creates a level-crossing notification body.
func FormatAlertMessage(ev alert.Event) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Level: %s @ %.2f\n", ev.Level, ev.LevelValue))
	sb.WriteString(fmt.Sprintf("Direction: %s\n", ev.Direction))
	sb.WriteString(fmt.Sprintf("Price: %.2f\n", ev.Price))
	sb.WriteString(fmt.Sprintf("Time: %s", ev.At.Format("15:04:05 MST")))

	return sb.String()
}

// FormatSignalMessage creates a trade signal notification body,
// including the playbook when one is defined for the signal type.
func FormatSignalMessage(symbol string, sig *gex.Signal) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Symbol: %s\n", symbol))
	sb.WriteString(fmt.Sprintf("Signal: %s\n", sig.Type))
	sb.WriteString(fmt.Sprintf("Bias: %s\n", sig.Bias))
	sb.WriteString(sig.Message)

	if pb, err := gex.PlaybookFor(sig.Type); err == nil {
		sb.WriteString(fmt.Sprintf("\n\nApproach: %s\n", pb.Approach))
		sb.WriteString(fmt.Sprintf("Risk: %s\n", pb.Risk))
		sb.WriteString(fmt.Sprintf("Horizon: %s", pb.TimeHorizon))
	}

	return sb.String()
}
