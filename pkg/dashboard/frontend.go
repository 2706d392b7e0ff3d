package dashboard

import "net/http"

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>Wallet Archetypes</title>
<style>
body { font-family: monospace; background: #0d1117; color: #c9d1d9; margin: 2em; }
h1 { color: #58a6ff; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #30363d; padding: 6px 10px; text-align: left; }
th { background: #161b22; }
.count { color: #7ee787; }
select { background: #161b22; color: #c9d1d9; border: 1px solid #30363d; padding: 4px; }
</style>
</head>
<body>
<h1>🔍 Wallet Archetypes</h1>
<div id="summary"></div>
<select id="filter" onchange="loadWallets()"><option value="">all archetypes</option></select>
<table id="wallets"><thead><tr><th>wallet</th><th>archetype</th><th>updated</th></tr></thead><tbody></tbody></table>
<script>
async function loadSummary() {
  const counts = await (await fetch('/api/archetypes')).json();
  const el = document.getElementById('summary');
  const sel = document.getElementById('filter');
  el.innerHTML = '';
  for (const [label, n] of Object.entries(counts || {}).sort((a,b) => b[1]-a[1])) {
    el.innerHTML += '<div>' + label + ': <span class="count">' + n + '</span></div>';
    const opt = document.createElement('option');
    opt.value = label; opt.textContent = label;
    sel.appendChild(opt);
  }
}
async function loadWallets() {
  const label = document.getElementById('filter').value;
  const rows = await (await fetch('/api/wallets?limit=200&archetype=' + encodeURIComponent(label))).json();
  const body = document.querySelector('#wallets tbody');
  body.innerHTML = '';
  for (const r of rows || []) {
    body.innerHTML += '<tr><td>' + r.wallet + '</td><td>' + r.archetype + '</td><td>' + r.updated_at + '</td></tr>';
  }
}
loadSummary().then(loadWallets);
</script>
</body>
</html>`

func (d *Dashboard) serveFrontend(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}
