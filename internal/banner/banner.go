// Package banner logs the startup summary.
package banner

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/lighting"
)

const hostInfoTimeout = 2 * time.Second

// Info is what the banner reports.
type Info struct {
	Variant    string
	Controller string
	State      lighting.State
}

// HostLookup returns details about the machine. host.InfoWithContext in
// production.
type HostLookup func(ctx context.Context) (*host.InfoStat, error)

// Log writes the banner. A failed host lookup only drops the host line.
func Log(ctx context.Context, logger *zap.SugaredLogger, info Info, lookup HostLookup) {
	logger.Infow("LED Control App Started", "variant", info.Variant, "controller", info.Controller)

	if lookup != nil {
		ctx, cancel := context.WithTimeout(ctx, hostInfoTimeout)
		defer cancel()
		if h, err := lookup(ctx); err != nil {
			logger.Debugw("Host info unavailable", "error", err)
		} else {
			logger.Infow("Host",
				"hostname", h.Hostname,
				"platform", h.Platform,
				"kernel", h.KernelVersion,
				"arch", h.KernelArch,
			)
		}
	}

	logger.Infow("Current state",
		"direction", info.State.Direction.String(),
		"effect", info.State.Effect.String(),
		"preset", info.State.Preset,
		"presetId", info.State.PresetID(),
	)
}
