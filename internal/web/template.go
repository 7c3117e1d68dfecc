package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ecg-monitor/internal/qrs"
	"github.com/sweeney/ecg-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ECG Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.warn { color: orange; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>ECG Monitor</h1>

<h2>Detector</h2>
<table>
<tr><th>State</th><td class="{{if .Ready}}ok{{else}}idle{{end}}">{{.Detector}}</td></tr>
<tr><th>Rhythm</th><td class="{{if .Irregular}}warn{{else}}ok{{end}}">{{.Rhythm}}</td></tr>
<tr><th>Heart rate</th><td>{{if .LongBPM}}{{.LongBPM}} bpm (short-term {{.ShortBPM}}){{else}}unknown{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Beats</th><td>{{.Beats}}</td></tr>
<tr><th>Last beat at sample</th><td>{{.LastBeatSample}}</td></tr>
<tr><th>Samples processed</th><td>{{.Samples}}</td></tr>
<tr><th>Detector resets</th><td>{{.Resets}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sampling rate</th><td>{{.Config.SamplingRate}} Hz</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}{{if .Config.Input}} ({{.Config.Input}}){{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/diag.json">Detector internals</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has method-shaped fields the template wants as values.
	data := struct {
		status.Snapshot
		Detector  string
		Rhythm    string
		Ready     bool
		Irregular bool
		Uptime    time.Duration
	}{
		Snapshot:  snap,
		Detector:  snap.Detector.String(),
		Rhythm:    snap.Rhythm.String(),
		Ready:     snap.Detector == qrs.StateDetecting,
		Irregular: snap.Rhythm == qrs.HeartRateIrregular,
		Uptime:    snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
