package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dht20-agent/internal/logic"
	"github.com/sweeney/dht20-agent/internal/status"
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
	"value":     logic.FormatValue,
	"timestamp": func(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05Z") },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>{{.Config.DeviceID}} {{.Config.SensorID}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.DeviceID}} {{.Config.SensorID}}</h1>

<h2>Reading</h2>
<table>
{{if .HasReading}}<tr><th>Temperature</th><td id="temperature">{{value .Reading.TemperatureC}} °C</td></tr>
<tr><th>Humidity</th><td id="humidity">{{value .Reading.HumidityPct}} %</td></tr>
<tr><th>Measured</th><td>{{timestamp .Reading.Timestamp}}</td></tr>{{else}}<tr><th>Temperature</th><td class="unknown">no reading yet</td></tr>{{end}}
<tr><th>Alerts</th><td id="alerts">{{if .ActiveAlerts}}{{range $i, $a := .ActiveAlerts}}{{if $i}}, {{end}}<span class="alert">{{$a}}</span>{{end}}{{else}}none{{end}}</td></tr>
<tr><th>Buzzer</th><td id="buzzer" class="{{if .BuzzerOn}}on{{else}}off{{end}}">{{if .BuzzerOn}}ON{{else}}OFF{{end}}</td></tr>
</table>

<h2>Thresholds</h2>
<table>
<tr><th>Max temperature</th><td>{{value .Config.Thresholds.TempMax}} °C</td></tr>
<tr><th>Humidity range</th><td>{{value .Config.Thresholds.HumMin}} – {{value .Config.Thresholds.HumMax}} %</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.Topic}}</td></tr>
<tr><th>Commands</th><td>{{if .Config.CommandsEnabled}}enabled{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Readings</th><td>{{.Counts.Readings}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
<tr><th>Published</th><td>{{.Counts.Published}}</td></tr>
<tr><th>Publish failures</th><td>{{.Counts.PublishFailures}}</td></tr>
<tr><th>Alerts</th><td>{{.Counts.Alerts}}</td></tr>
<tr><th>Messages sent</th><td>{{.Counts.Notifications}}</td></tr>
<tr><th>Message failures</th><td>{{.Counts.NotifyFailures}}</td></tr>
<tr><th>Commands</th><td>{{.Counts.Commands}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{timestamp .StartTime}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Summary</th><td>{{.Config.Summary}}</td></tr>
{{if not .LastSummary.IsZero}}<tr><th>Last summary</th><td>{{timestamp .LastSummary}}</td></tr>{{end}}
{{if .LastError}}<tr><th>Last error</th><td class="alert">{{.LastError}} ({{timestamp .LastErrorAt}})</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a> · <a href="/healthz">health</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
