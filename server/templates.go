package server

import (
	"encoding/json"
	"html/template"
	"log"
	"net/url"
	"strconv"

	"apppulse/models"
	"apppulse/services"
)

type metricCard struct {
	Label string
	Value string
	Delta string
	Down  bool
}

type pageData struct {
	Title      string
	Report     *models.DashboardReport
	Query      string
	Metrics    []metricCard
	Sentiment  []metricCard
	SearchMore int
	ExportCSV  template.URL
	ExportXLSX template.URL
	ChartJSON  template.JS
}

func newPageData(r *models.DashboardReport, query string) pageData {
	m := r.Metrics

	apps := metricCard{Label: "Total Apps", Value: services.FormatCount(int64(m.TotalApps))}
	if m.TotalAppsDelta != nil {
		apps.Delta = strconv.Itoa(*m.TotalAppsDelta)
		apps.Down = *m.TotalAppsDelta < 0
	}
	rating := metricCard{
		Label: "Average Rating",
		Value: services.FormatOpt(m.AvgRating, "%.2f"),
		Delta: services.FormatDelta(m.AvgRatingDelta, "%.2f"),
		Down:  m.AvgRatingDelta.Valid && m.AvgRatingDelta.Value < 0,
	}

	d := pageData{
		Title:  "AppPulse Dashboard",
		Report: r,
		Query:  query,
		Metrics: []metricCard{
			apps,
			rating,
			{Label: "Total Installs", Value: services.FormatInstalls(m.TotalInstalls)},
			{Label: "Free Apps", Value: services.FormatOpt(m.FreePercentage, "%.1f%%")},
		},
		Sentiment: []metricCard{
			polarityCard(r.Sentiment.Polarity),
			{Label: "Avg Positive Reviews", Value: services.FormatPercent(r.Sentiment.PositivePct)},
			{Label: "Avg Negative Reviews", Value: services.FormatPercent(r.Sentiment.NegativePct)},
		},
		ChartJSON: mustJSONTemplateJS(r),
	}

	if r.Search != nil {
		d.SearchMore = r.Search.Total - len(r.Search.Results)
	}

	q := exportQuery(r.Criteria)
	d.ExportCSV = template.URL("/export.csv?" + q)
	d.ExportXLSX = template.URL("/export.xlsx?" + q)
	return d
}

// polarityCard labels the mean polarity Positive above zero and Negative
// otherwise. No label is shown without data.
func polarityCard(p models.OptFloat) metricCard {
	card := metricCard{Label: "Avg Sentiment Polarity", Value: services.FormatOpt(p, "%.3f")}
	if p.Valid {
		card.Delta = "Positive"
		if p.Value <= 0 {
			card.Delta, card.Down = "Negative", true
		}
	}
	return card
}

func exportQuery(c models.FilterCriteria) string {
	v := url.Values{}
	v.Set("category", c.Category)
	v.Set("type", c.Type)
	v.Set("min_rating", strconv.FormatFloat(c.MinRating, 'f', -1, 64))
	v.Set("min_reviews", strconv.FormatInt(c.MinReviews, 10))
	return v.Encode()
}

func mustJSONTemplateJS(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("json marshal error for template data: %v", err)
		return template.JS("null")
	}
	return template.JS(b)
}

var templateFuncs = template.FuncMap{
	"opt":      services.FormatOpt,
	"optCount": services.FormatOptCount,
	"comma":    services.FormatCount,
	"commaInt": func(n int) string { return services.FormatCount(int64(n)) },
	"inc":      func(i int) int { return i + 1 },
	"category": func(c string) string {
		if c == "" {
			return "(none)"
		}
		return c
	},
}

var errorTemplate = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{ .title }} | AppPulse</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #f6f7fb; color: #1f2937; margin: 0; }
    .box { max-width: 640px; margin: 12vh auto; background: #fff; border-radius: 12px; padding: 28px 32px; box-shadow: 0 10px 30px rgba(0,0,0,.08); }
    .code { color: #dc2626; font-weight: 700; }
    a { color: #4f46e5; }
  </style>
</head>
<body>
  <div class="box">
    <h1>📱 AppPulse</h1>
    <p class="code">{{ .status }} {{ .title }}</p>
    <p>{{ .message }}</p>
    <p><a href="{{ .home }}">Reset filters</a></p>
  </div>
</body>
</html>`))

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{ .Title }}</title>
  <script src="https://cdn.plot.ly/plotly-2.35.2.min.js" charset="utf-8"></script>
  <style>
    :root { --ink: #1f2937; --muted: #6b7280; --line: #e5e7eb; --brand: #4f46e5; --up: #059669; --down: #dc2626; }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: system-ui, -apple-system, "Segoe UI", sans-serif; color: var(--ink); background: #f6f7fb; }
    .layout { display: grid; grid-template-columns: 280px 1fr; min-height: 100vh; }
    aside { background: #fff; border-right: 1px solid var(--line); padding: 24px 20px; }
    aside label { display: block; font-size: 13px; color: var(--muted); margin: 18px 0 6px; }
    aside select, aside input[type=text] { width: 100%; padding: 8px; border: 1px solid var(--line); border-radius: 8px; }
    aside input[type=range] { width: 100%; }
    aside button { margin-top: 22px; width: 100%; padding: 10px; background: var(--brand); color: #fff; border: 0; border-radius: 8px; cursor: pointer; }
    main { padding: 24px 32px 64px; }
    h1 { margin: 0 0 4px; }
    .sub { color: var(--muted); margin: 0 0 24px; }
    h2 { margin: 36px 0 12px; font-size: 20px; }
    .cards { display: grid; grid-template-columns: repeat(4, minmax(0, 1fr)); gap: 14px; }
    .cards.three { grid-template-columns: repeat(3, minmax(0, 1fr)); }
    .card { background: #fff; border: 1px solid var(--line); border-radius: 12px; padding: 16px; }
    .card .label { font-size: 13px; color: var(--muted); }
    .card .value { font-size: 28px; font-weight: 700; margin-top: 4px; }
    .card .delta { font-size: 13px; margin-top: 2px; }
    .delta.up { color: var(--up); } .delta.down { color: var(--down); }
    .grid2 { display: grid; grid-template-columns: 1fr 1fr; gap: 14px; }
    .grid3 { display: grid; grid-template-columns: repeat(3, minmax(0, 1fr)); gap: 14px; }
    .chart { background: #fff; border: 1px solid var(--line); border-radius: 12px; min-height: 380px; }
    table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid var(--line); border-radius: 12px; overflow: hidden; font-size: 13px; }
    th, td { padding: 7px 10px; border-bottom: 1px solid var(--line); text-align: left; }
    th { background: #f9fafb; }
    td.num { text-align: right; font-variant-numeric: tabular-nums; }
    .scroll { max-height: 420px; overflow: auto; border-radius: 12px; }
    .downloads a { display: inline-block; margin-right: 12px; padding: 9px 14px; border-radius: 8px; background: var(--brand); color: #fff; text-decoration: none; }
    .showing { margin-top: 22px; font-size: 13px; color: var(--muted); }
    table.buckets { margin-top: 10px; }
    .empty { color: var(--muted); padding: 16px; background: #fff; border: 1px dashed var(--line); border-radius: 12px; }
    footer { color: var(--muted); margin-top: 48px; font-size: 13px; }
    @media (max-width: 960px) {
      .layout { grid-template-columns: 1fr; }
      .cards, .grid2, .grid3 { grid-template-columns: 1fr; }
    }
  </style>
</head>
<body>
<div class="layout">
  <aside>
    <h3>🔍 Filters</h3>
    <form method="get" action="/">
      <label for="category">Select Category</label>
      <select id="category" name="category">
        <option value="all">All</option>
        {{ range .Report.Categories }}<option value="{{ . }}"{{ if eq . $.Report.Criteria.Category }} selected{{ end }}>{{ . }}</option>{{ end }}
      </select>

      <label for="type">App Type</label>
      <select id="type" name="type">
        <option value="all">All</option>
        <option value="Free"{{ if eq .Report.Criteria.Type "Free" }} selected{{ end }}>Free</option>
        <option value="Paid"{{ if eq .Report.Criteria.Type "Paid" }} selected{{ end }}>Paid</option>
      </select>

      <label for="min_rating">Minimum Rating: <output id="min_rating_out">{{ .Report.Criteria.MinRating }}</output></label>
      <input id="min_rating" name="min_rating" type="range" min="0" max="5" step="0.5" value="{{ .Report.Criteria.MinRating }}"
        oninput="document.getElementById('min_rating_out').value = this.value" />

      <label for="min_reviews">Minimum Reviews: <output id="min_reviews_out">{{ .Report.Criteria.MinReviews }}</output></label>
      <input id="min_reviews" name="min_reviews" type="range" min="0" max="10000" step="100" value="{{ .Report.Criteria.MinReviews }}"
        oninput="document.getElementById('min_reviews_out').value = this.value" />

      <label for="q">Search apps by name</label>
      <input id="q" name="q" type="text" value="{{ .Query }}" placeholder="e.g. photo" />

      <button type="submit">Apply</button>
    </form>
    <p class="showing"><strong>Showing:</strong> {{ commaInt .Report.Metrics.TotalApps }} / {{ commaInt .Report.DatasetLen }} apps</p>
  </aside>

  <main>
    <h1>📱 AppPulse Dashboard</h1>
    <p class="sub">Interactive analytics for {{ commaInt .Report.DatasetLen }} apps from {{ .Report.Source }}</p>

    <div class="cards">
      {{ range .Metrics }}
      <div class="card">
        <div class="label">{{ .Label }}</div>
        <div class="value">{{ .Value }}</div>
        {{ if .Delta }}<div class="delta {{ if .Down }}down{{ else }}up{{ end }}">{{ .Delta }}</div>{{ end }}
      </div>
      {{ end }}
    </div>

    {{ if eq .Report.Metrics.TotalApps 0 }}
    <h2>No results</h2>
    <p class="empty">No apps match the current filters. Lower the thresholds or pick another category.</p>
    {{ else }}

    <h2>📊 Category Analysis</h2>
    <div class="grid2">
      <div class="chart" id="chart-categories"></div>
      <div class="chart" id="chart-category-ratings"></div>
    </div>

    <h2>Category Summary</h2>
    <div class="scroll">
      <table>
        <thead><tr><th>Category</th><th>App Count</th><th>Avg Rating</th><th>Total Reviews</th><th>Total Installs</th></tr></thead>
        <tbody>
        {{ range .Report.CategoryTable }}
          <tr><td>{{ category .Category }}</td><td class="num">{{ commaInt .AppCount }}</td><td class="num">{{ opt .AvgRating "%.2f" }}</td><td class="num">{{ comma .TotalReviews }}</td><td class="num">{{ comma .TotalInstalls }}</td></tr>
        {{ end }}
        </tbody>
      </table>
    </div>

    <h2>⭐ Rating Analysis</h2>
    <div class="grid2">
      <div class="chart" id="chart-histogram"></div>
      <div class="chart" id="chart-scatter"></div>
    </div>

    <h2>💬 Sentiment Analysis</h2>
    <div class="cards three">
      {{ range .Sentiment }}
      <div class="card">
        <div class="label">{{ .Label }}</div>
        <div class="value">{{ .Value }}</div>
        {{ if .Delta }}<div class="delta {{ if .Down }}down{{ else }}up{{ end }}">{{ .Delta }}</div>{{ end }}
      </div>
      {{ end }}
    </div>
    <div class="chart" id="chart-sentiment" style="margin-top: 14px"></div>

    <h2>🏆 Top Performers</h2>
    <div class="grid3">
      <div>
        <h3>Highest Rated</h3>
        <table>
          <thead><tr><th>#</th><th>App</th><th>Category</th><th>Rating</th><th>Reviews</th></tr></thead>
          <tbody>{{ range $i, $a := .Report.TopRated }}<tr><td>{{ inc $i }}</td><td>{{ $a.Name }}</td><td>{{ category $a.Category }}</td><td class="num">{{ opt $a.Rating "%.1f" }}</td><td class="num">{{ optCount $a.Reviews }}</td></tr>{{ end }}</tbody>
        </table>
      </div>
      <div>
        <h3>Most Installed</h3>
        <table>
          <thead><tr><th>#</th><th>App</th><th>Category</th><th>Installs</th><th>Rating</th></tr></thead>
          <tbody>{{ range $i, $a := .Report.TopInstalled }}<tr><td>{{ inc $i }}</td><td>{{ $a.Name }}</td><td>{{ category $a.Category }}</td><td class="num">{{ optCount $a.Installs }}</td><td class="num">{{ opt $a.Rating "%.1f" }}</td></tr>{{ end }}</tbody>
        </table>
      </div>
      <div>
        <h3>Most Reviewed</h3>
        <table>
          <thead><tr><th>#</th><th>App</th><th>Category</th><th>Reviews</th><th>Rating</th></tr></thead>
          <tbody>{{ range $i, $a := .Report.TopReviewed }}<tr><td>{{ inc $i }}</td><td>{{ $a.Name }}</td><td>{{ category $a.Category }}</td><td class="num">{{ optCount $a.Reviews }}</td><td class="num">{{ opt $a.Rating "%.1f" }}</td></tr>{{ end }}</tbody>
        </table>
      </div>
    </div>

    <h2>💰 Price Analysis</h2>
    <div class="grid2">
      <div>
        <div class="chart" id="chart-price"></div>
        {{ template "buckets" .Report.PriceRating }}
      </div>
      <div>
        <div class="chart" id="chart-size"></div>
        {{ template "buckets" .Report.SizeRating }}
      </div>
    </div>
    {{ end }}

    <h2>🔎 App Search</h2>
    {{ with .Report.Search }}
      <p>Found {{ .Total }} apps matching "{{ .Query }}"</p>
      {{ if .Results }}
      <table>
        <thead><tr><th>App</th><th>Category</th><th>Rating</th><th>Reviews</th><th>Installs</th><th>Type</th><th>Price</th></tr></thead>
        <tbody>{{ range .Results }}<tr><td>{{ .Name }}</td><td>{{ category .Category }}</td><td class="num">{{ opt .Rating "%.1f" }}</td><td class="num">{{ optCount .Reviews }}</td><td class="num">{{ optCount .Installs }}</td><td>{{ .Type }}</td><td class="num">{{ opt .Price "$%.2f" }}</td></tr>{{ end }}</tbody>
      </table>
      {{ if gt $.SearchMore 0 }}<p class="sub">… and {{ $.SearchMore }} more</p>{{ end }}
      {{ end }}
    {{ else }}
      <p class="sub">Type a name in the sidebar to search the filtered apps.</p>
    {{ end }}

    <h2>📋 Raw Data</h2>
    {{ if .Report.Preview }}
    <div class="scroll">
      <table>
        <thead><tr><th>App</th><th>Category</th><th>Type</th><th>Rating</th><th>Reviews</th><th>Installs</th><th>Price</th><th>Size (MB)</th></tr></thead>
        <tbody>{{ range .Report.Preview }}<tr><td>{{ .Name }}</td><td>{{ category .Category }}</td><td>{{ .Type }}</td><td class="num">{{ opt .Rating "%.1f" }}</td><td class="num">{{ optCount .Reviews }}</td><td class="num">{{ optCount .Installs }}</td><td class="num">{{ opt .Price "$%.2f" }}</td><td class="num">{{ opt .SizeMB "%.1f" }}</td></tr>{{ end }}</tbody>
      </table>
    </div>
    {{ else }}
    <p class="empty">No rows to preview.</p>
    {{ end }}
    <p class="downloads">
      <a href="{{ .ExportCSV }}" download>📥 Download filtered data (CSV)</a>
      <a href="{{ .ExportXLSX }}" download>📥 Download filtered data (Excel)</a>
    </p>

    <footer>AppPulse · Google Play Store analytics</footer>
  </main>
</div>

<script>
  (function () {
    var data = {{ .ChartJSON }};
    if (!data || !window.Plotly || data.metrics.total_apps === 0) return;

    var layout = function (title, extra) {
      var base = { title: title, margin: { t: 48, r: 16, b: 90, l: 56 }, paper_bgcolor: "rgba(0,0,0,0)" };
      return Object.assign(base, extra || {});
    };
    var pluck = function (list, key) { return (list || []).map(function (d) { return d[key]; }); };
    var name = function (c) { return c === "" ? "(none)" : c; };
    var opts = { responsive: true, displayModeBar: false };

    Plotly.newPlot("chart-categories", [{
      type: "bar", x: pluck(data.top_categories, "category").map(name), y: pluck(data.top_categories, "app_count"),
      marker: { color: pluck(data.top_categories, "app_count"), colorscale: "Viridis" }
    }], layout("Top Categories by App Count", { xaxis: { tickangle: -45 } }), opts);

    Plotly.newPlot("chart-category-ratings", [{
      type: "bar", x: pluck(data.category_ratings, "category").map(name), y: pluck(data.category_ratings, "value"),
      marker: { color: pluck(data.category_ratings, "value"), colorscale: "RdYlGn" }
    }], layout("Average Rating by Category", { xaxis: { tickangle: -45 }, yaxis: { range: [0, 5] } }), opts);

    Plotly.newPlot("chart-histogram", [{
      type: "bar", x: pluck(data.rating_histogram, "lower"), y: pluck(data.rating_histogram, "count"),
      text: pluck(data.rating_histogram, "label"), hovertemplate: "%{text}: %{y}<extra></extra>",
      width: 5 / Math.max(1, (data.rating_histogram || []).length), offset: 0
    }], layout("Rating Distribution", { xaxis: { title: "Rating", range: [0, 5] }, yaxis: { title: "Apps" } }), opts);

    var byType = {};
    (data.scatter_sample || []).forEach(function (d) {
      var k = d.type || "Unknown";
      (byType[k] = byType[k] || []).push(d);
    });
    var maxInstalls = Math.max.apply(null, [1].concat(pluck(data.scatter_sample, "installs").filter(Boolean)));
    Plotly.newPlot("chart-scatter", Object.keys(byType).map(function (k) {
      var list = byType[k];
      return {
        type: "scatter", mode: "markers", name: k,
        x: pluck(list, "reviews"), y: pluck(list, "rating"), text: pluck(list, "app"),
        marker: { opacity: 0.6, size: list.map(function (d) { return 5 + 25 * Math.sqrt((d.installs || 0) / maxInstalls); }) }
      };
    }), layout("Rating vs Reviews", { xaxis: { title: "Reviews", type: "log" }, yaxis: { title: "Rating" } }), opts);

    Plotly.newPlot("chart-sentiment", [
      { type: "bar", name: "Positive %", x: pluck(data.sentiment_by_category, "category").map(name), y: pluck(data.sentiment_by_category, "positive_percentage"), marker: { color: "#059669" } },
      { type: "bar", name: "Negative %", x: pluck(data.sentiment_by_category, "category").map(name), y: pluck(data.sentiment_by_category, "negative_percentage"), marker: { color: "#dc2626" } }
    ], layout("Sentiment by Category", { barmode: "group", xaxis: { tickangle: -45 } }), opts);

    var buckets = function (id, list, title) {
      Plotly.newPlot(id, [{
        type: "bar", x: pluck(list, "label"), y: pluck(list, "value"), customdata: pluck(list, "count"),
        text: pluck(list, "value").map(function (v) { return v === null ? "no data" : v.toFixed(2); }),
        textposition: "outside", cliponaxis: false,
        hovertemplate: "%{x}: %{text} (%{customdata} apps)<extra></extra>", marker: { color: "#4f46e5" }
      }], layout(title, { yaxis: { title: "Average Rating", range: [0, 5] } }), opts);
    };
    buckets("chart-price", data.price_rating, "Average Rating by Price Range");
    buckets("chart-size", data.size_rating, "Average Rating by App Size");
  })();
</script>
</body>
</html>
{{ define "buckets" }}<table class="buckets">
  <thead><tr><th>Range</th><th>Avg Rating</th><th>Apps</th></tr></thead>
  <tbody>{{ range . }}<tr><td>{{ .Label }}</td><td class="num">{{ opt .Value "%.2f" }}</td><td class="num">{{ commaInt .Count }}</td></tr>{{ end }}</tbody>
</table>{{ end }}`))
