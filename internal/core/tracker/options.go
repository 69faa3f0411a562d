package tracker

import (
	"leadfunnel/internal/core/consent"
	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/recording"
	"leadfunnel/internal/platform/config"
)

// Default cohort rates
const (
	DefaultHeatmapRate   = 0.3
	DefaultRecordingRate = 0.1
)

// Options is the capture profile
type Options struct {
	HeatmapRate   float64          `yaml:"heatmap_rate" json:"heatmap_rate"`
	RecordingRate float64          `yaml:"recording_rate" json:"recording_rate"`
	Consent       consent.Config   `yaml:"consent" json:"consent"`
	Heatmap       heatmap.Config   `yaml:"heatmap" json:"heatmap"`
	Recording     recording.Config `yaml:"recording" json:"recording"`
}

// DefaultOptions is the production profile
func DefaultOptions() Options {
	return Options{HeatmapRate: DefaultHeatmapRate, RecordingRate: DefaultRecordingRate}
}

// WithDefaults fills every zero field the collectors would default
func (o Options) WithDefaults() Options {
	o.Consent = o.Consent.WithDefaults()
	o.Heatmap = o.Heatmap.WithDefaults()
	o.Recording = o.Recording.WithDefaults()
	return o
}

// OptionsFromConf reads CORE_CAPTURE_* overrides
//
//	HEATMAP_RATE RECORDING_RATE
//	CONSENT_POLL CONSENT_TIMEOUT
//	HEATMAP_MAX HEATMAP_MOVE_DEBOUNCE HEATMAP_SCROLL_DEBOUNCE HEATMAP_HOVER_DWELL
//	HEATMAP_SWEEP HEATMAP_RETENTION HEATMAP_SIGNIFICANT
//	RECORDING_MAX_DURATION RECORDING_INPUTS RECORDING_KEYSTROKES RECORDING_EXCLUDE
func OptionsFromConf(root config.Conf) Options {
	c := root.Prefix("CORE_CAPTURE_")
	d := DefaultOptions()
	return Options{
		HeatmapRate:   c.MayProbability("HEATMAP_RATE", d.HeatmapRate),
		RecordingRate: c.MayProbability("RECORDING_RATE", d.RecordingRate),
		Consent: consent.Config{
			PollInterval: c.MayDuration("CONSENT_POLL", consent.DefaultPollInterval),
			Timeout:      c.MayDuration("CONSENT_TIMEOUT", consent.DefaultTimeout),
		},
		Heatmap: heatmap.Config{
			MaxSamples:          c.MayInt("HEATMAP_MAX", 5000),
			MoveDebounce:        c.MayDuration("HEATMAP_MOVE_DEBOUNCE", 0),
			ScrollDebounce:      c.MayDuration("HEATMAP_SCROLL_DEBOUNCE", 0),
			HoverDwell:          c.MayDuration("HEATMAP_HOVER_DWELL", 0),
			SweepEvery:          c.MayDuration("HEATMAP_SWEEP", 0),
			Retention:           c.MayDuration("HEATMAP_RETENTION", 0),
			SignificantSelector: c.MayString("HEATMAP_SIGNIFICANT", heatmap.DefaultSignificant),
		},
		Recording: recording.Config{
			MaxDuration:       c.MayDuration("RECORDING_MAX_DURATION", 0),
			CaptureInputs:     c.MayBool("RECORDING_INPUTS", false),
			CaptureKeystrokes: c.MayBool("RECORDING_KEYSTROKES", false),
			ExcludeSelector:   c.MayString("RECORDING_EXCLUDE", recording.DefaultExclude),
		},
	}
}
