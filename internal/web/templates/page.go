// Package templates renders the HTML pages and fragments of the workbench as
// templ components. Run `templ generate` after editing a .templ file.
package templates

import (
	"slices"

	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/table"
)

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	SessionID             string
	State                 core.State
	History               []core.HistoryEntry
	Page                  *core.TablePage
	Pending               *table.MissingReport
	NumericStrategies     []core.NumericStrategy
	CategoricalStrategies []core.CategoricalStrategy
}

func firstColumn(cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	return cols[0]
}

func sortedKeys(m map[string]int) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

const styleTag = `<style>body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{background:#1e293b;color:#f8fafc;padding:.75rem 1.5rem}
main{padding:1.5rem;display:grid;gap:1.5rem}
section{background:#fff;border:1px solid #e2e8f0;border-radius:.5rem;padding:1rem}
table{border-collapse:collapse;font-size:.875rem}
th,td{border-bottom:1px solid #e2e8f0;padding:.25rem .75rem;text-align:left}
td.num{text-align:right;font-variant-numeric:tabular-nums}
td.na{color:#94a3b8}
tr[aria-current]{font-weight:600}
.alert{border:1px solid #fca5a5;background:#fef2f2;color:#991b1b;border-radius:.5rem;padding:.75rem}
.muted{color:#64748b}</style>`

// dashboardScript submits data-api forms with fetch and reloads on success.
// Forms with data-json send the named fields as a JSON object.
const dashboardScript = `<script>
document.querySelectorAll("form[data-api]").forEach(function (form) {
  form.addEventListener("submit", async function (ev) {
    ev.preventDefault();
    var opts = {method: form.method.toUpperCase(), headers: {"Accept": "application/json"}};
    if (form.dataset.json) {
      var body = {};
      form.dataset.json.split(",").forEach(function (k) { body[k] = form.elements[k].value; });
      opts.headers["Content-Type"] = "application/json";
      opts.body = JSON.stringify(body);
    } else if (form.enctype === "multipart/form-data") {
      opts.body = new FormData(form);
    }
    var res = await fetch(form.dataset.api, opts);
    var data = await res.json().catch(function () { return {}; });
    if (!res.ok) {
      document.getElementById("errors").textContent = (data.message || res.statusText) + (data.detail ? ": " + data.detail : "") + (data.code ? " (" + data.code + ")" : "");
      return;
    }
    if (form.dataset.api === "/api/metric") {
      document.getElementById("metric-result").textContent = data.scalar || data.message || JSON.stringify(data.values);
      return;
    }
    location.reload();
  });
});
</script>`
