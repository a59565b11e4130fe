package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/logic"
	"github.com/sweeney/tile-floor/internal/status"
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
	"phase": func(p string) string {
		if p == "" {
			return "IDLE"
		}
		return p
	},
	"pressed": func(s logic.PressState) bool { return s == logic.Pressed },
	"inc":     func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Tile Floor</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
button { font-family: monospace; margin: 2px; }
</style>
</head>
<body>
<h1>Tile Floor<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Game</h2>
<table>
<tr><th>Polling</th><td id="polling" class="{{if .Floor.Polling}}on{{else}}off{{end}}">{{if .Floor.Polling}}yes{{else}}no{{end}}</td></tr>
<tr><th>Phase</th><td id="phase">{{phase (printf "%s" .Floor.Game.Phase)}}</td></tr>
<tr><th>Round</th><td id="round">{{.Floor.Game.Round}}</td></tr>
<tr><th>Target</th><td id="target">{{.Floor.Game.Target}}</td></tr>
<tr><th>Progress</th><td id="progress">{{.Floor.Game.Progress.Labels}}</td></tr>
</table>

<p>{{range .Commands}}<button onclick="send('{{.}}')">{{.}}</button>{{end}}</p>
<p id="reply"></p>

<h2>Tiles</h2>
<table id="tiles">
<tr><th>Tile</th><td>State</td><td>Filtered</td><td>Press / Release</td></tr>
{{range $i, $c := .Floor.Channels}}<tr><th>{{inc $i}}</th><td class="{{if pressed $c.Stable}}on{{else}}off{{end}}">{{$c.Stable}}</td><td>{{printf "%.0f" $c.Filtered}}</td><td{{if $c.Degenerate}} class="warn"{{end}}>{{printf "%.0f" $c.ThrPress}} / {{printf "%.0f" $c.ThrRelease}}</td></tr>
{{end}}</table>

<h2>Counts</h2>
<table>
<tr><th>Rounds started</th><td>{{.Floor.Counts.RoundsStarted}}</td></tr>
<tr><th>Rounds completed</th><td>{{.Floor.Counts.RoundsCompleted}}</td></tr>
<tr><th>Tile hits</th><td>{{.Floor.Counts.TileHits}}</td></tr>
<tr><th>Wrong presses</th><td>{{.Floor.Counts.WrongPresses}}</td></tr>
<tr><th>Commands</th><td>{{.Floor.Counts.Commands}} ({{.Floor.Counts.Rejected}} rejected)</td></tr>
<tr><th>Read errors</th><td>{{.Floor.Counts.ReadErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tiles</th><td>{{.Config.Tiles}}</td></tr>
<tr><th>Polarity</th><td>{{.Config.Polarity}}</td></tr>
<tr><th>Policy</th><td>{{.Config.Policy}}</td></tr>
<tr><th>Sequence</th><td>{{.Config.Sequence}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
<script>
var ws;
function send(cmd) {
  fetch("/api/command/" + cmd, { method: "POST" })
    .then(function(r) { return r.json(); })
    .then(function(r) { document.getElementById("reply").textContent = (r.ok ? "ok: " : "rejected: ") + r.status; });
}
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) { dot.className = "live-dot " + cls; dot.title = title; }
  function connect() {
    ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 5000); };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (!msg.status) { return; }
        var s = msg.status;
        document.getElementById("polling").textContent = s.polling ? "yes" : "no";
        document.getElementById("phase").textContent = s.game.phase;
        document.getElementById("round").textContent = s.game.round;
        document.getElementById("target").textContent = JSON.stringify(s.game.target);
        document.getElementById("progress").textContent = JSON.stringify(s.game.progress);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Commands []command.Command
	}{
		Snapshot: snap,
		Commands: command.All,
	}
	return indexTmpl.Execute(w, data)
}
