// Package config defines the command-line and file configuration
// surface for a federate process, following the flag-struct convention
// the teacher's CLI tooling uses throughout: plain structs with
// `long`/`short`/`description`/`default` tags consumed directly by
// go-flags, rather than a bespoke flag-parsing layer.
package config

import "github.com/corinnegroth/federate-core/ftime"

// FederateConfig is the subset of a federate's registration the
// command-line harness can set directly; richer deployments load this
// from a broker-provided TOML/JSON federation file instead (out of
// scope here).
type FederateConfig struct {
	Name string `long:"name" short:"n" description:"federate name" required:"true"`

	TimeDelta   int64 `long:"time-delta" description:"minimum time between requested steps, in ticks" default:"1"`
	Period      int64 `long:"period" description:"periodic time grid, in ticks; 0 disables" default:"0"`
	Offset      int64 `long:"offset" description:"phase offset applied to the periodic grid, in ticks" default:"0"`
	InputDelay   int64 `long:"input-delay" description:"delay applied to incoming values, in ticks" default:"0"`
	OutputDelay  int64 `long:"output-delay" description:"delay applied to outgoing values, in ticks" default:"0"`
	ImpactWindow int64 `long:"impact-window" description:"delay added to the time of CMD_PUB/CMD_SEND_MESSAGE traffic this federate receives before it is revealed, in ticks" default:"0"`

	StopTime int64 `long:"stop-time" description:"time to request before halting, in ticks" default:"0"`
}

// TimeDeltaTime returns TimeDelta normalized the way ftime.Time
// arithmetic expects: never smaller than ftime.Epsilon.
func (c FederateConfig) TimeDeltaTime() ftime.Time {
	return ftime.NormalizeDelta(ftime.Time(c.TimeDelta))
}

// LogConfig mirrors the teacher's logging flag group: a level name and
// whether to emit structured JSON instead of the default text formatter.
type LogConfig struct {
	Level string `long:"log-level" description:"debug, info, warn, or error" default:"info"`
	JSON  bool   `long:"log-json" description:"emit structured JSON log lines"`
}
