package web

import (
	"encoding/json"

	"github.com/sweeney/ecg-monitor/internal/qrs"
)

// DiagJSON is the JSON envelope for the detector internals endpoint.
type DiagJSON struct {
	Diagnostics DiagInner `json:"diagnostics"`
}

// DiagInner mirrors qrs.Diagnostics field by field.
type DiagInner struct {
	LowPass    int16  `json:"low_pass"`
	HighPass   int16  `json:"high_pass"`
	Derivative int16  `json:"derivative"`
	Squared    uint16 `json:"squared"`
	Integrated uint16 `json:"integrated"`

	IntegratedThreshold ThresholdJSON `json:"integrated_threshold"`
	BandPassThreshold   ThresholdJSON `json:"band_pass_threshold"`

	State  string `json:"state"`
	Rhythm string `json:"rhythm"`

	MeanRR          int `json:"mean_rr"`
	MeanPlausibleRR int `json:"mean_plausible_rr"`
}

// ThresholdJSON is the JSON representation of one adaptive threshold pair.
type ThresholdJSON struct {
	Primary   int32 `json:"primary"`
	Secondary int32 `json:"secondary"`
	Signal    int32 `json:"signal"`
	Noise     int32 `json:"noise"`
}

func formatDiagJSON(diag qrs.Diagnostics) []byte {
	dj := DiagJSON{
		Diagnostics: DiagInner{
			LowPass:    diag.LowPass,
			HighPass:   diag.HighPass,
			Derivative: diag.Derivative,
			Squared:    diag.Squared,
			Integrated: diag.Integrated,
			IntegratedThreshold: ThresholdJSON{
				Primary:   diag.IntegratedThreshold.Primary,
				Secondary: diag.IntegratedThreshold.Secondary,
				Signal:    diag.IntegratedThreshold.Signal,
				Noise:     diag.IntegratedThreshold.Noise,
			},
			BandPassThreshold: ThresholdJSON{
				Primary:   diag.BandPassThreshold.Primary,
				Secondary: diag.BandPassThreshold.Secondary,
				Signal:    diag.BandPassThreshold.Signal,
				Noise:     diag.BandPassThreshold.Noise,
			},
			State:           diag.State.String(),
			Rhythm:          diag.HeartRate.String(),
			MeanRR:          diag.MeanRR,
			MeanPlausibleRR: diag.MeanPlausibleRR,
		},
	}

	data, _ := json.MarshalIndent(dj, "", "  ")
	return data
}
