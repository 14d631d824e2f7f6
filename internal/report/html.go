package report

import (
	"html/template"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/sawpanic/asxscreen/internal/domain"
)

const htmlTemplateSource = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Overnight screening report — {{.RunDate}}</title>
<style>
body { font-family: -apple-system, Arial, sans-serif; margin: 2rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; font-size: 0.9rem; }
th { background: #f4f4f4; }
.rating-A\+ { color: #0a7d2c; font-weight: bold; }
.rating-A { color: #0a7d2c; }
.rating-B\+ { color: #9a7d0a; }
.warning { background: #fff3f0; }
</style>
</head>
<body>
<h1>Overnight screening — {{.RunDate}}</h1>

{{if .NoCandidates}}
<p><strong>No candidates produced this run.</strong> Reason counts: {{range $k, $v := .ReasonCounts}}{{$k}}={{$v}} {{end}}</p>
{{end}}

<h2>Market overview</h2>
<p>Gap direction: {{.Market.GapDirection}} ({{.Market.GapConfidence}} confidence) — overall sentiment {{.Market.OverallSentiment}} ({{printf "%.1f" .Market.SentimentScore}}/100)</p>
<p>SPI {{printf "%.2f" .Market.SPIChangePct}}% · S&amp;P500 {{printf "%.2f" .Market.SP500ChangePct}}% · Nasdaq {{printf "%.2f" .Market.NasdaqChangePct}}% · Dow {{printf "%.2f" .Market.DowChangePct}}%</p>

<h2>Top 10 BUYs</h2>
<table>
<tr><th>Symbol</th><th>Sector</th><th>Score</th><th>Rating</th><th>Confidence</th><th>Entry</th><th>Stop</th><th>Target</th></tr>
{{range .TopBuys}}
<tr><td>{{.Candidate.Symbol}}</td><td>{{.Candidate.Sector}}</td><td>{{printf "%.1f" .Score}}</td><td class="rating-{{.Rating}}">{{.Rating}}</td><td>{{printf "%.1f" .Prediction.FinalConfidence}}</td>
<td>{{printf "%.2f" .Candidate.Price}}</td><td>{{printf "%.2f" (entryStop .Candidate.Price)}}</td><td>{{printf "%.2f" (entryTarget .Candidate.Price)}}</td></tr>
{{end}}
</table>

<h2>Watchlist (near-signals, confidence 60–75%)</h2>
<table>
<tr><th>Symbol</th><th>Sector</th><th>Direction</th><th>Confidence</th></tr>
{{range .Watchlist}}
<tr><td>{{.Candidate.Symbol}}</td><td>{{.Candidate.Sector}}</td><td>{{.Prediction.Direction}}</td><td>{{printf "%.1f" .Prediction.FinalConfidence}}</td></tr>
{{end}}
</table>

<h2>Warnings — sit-out tickers</h2>
<table>
<tr><th>Symbol</th><th>Event type</th><th>Days to event</th><th>Risk score</th><th>Warning</th></tr>
{{range .Warnings}}
<tr class="warning"><td>{{.Candidate.Symbol}}</td><td>{{.Guard.EventType}}</td><td>{{daysStr .Guard.DaysToEvent}}</td><td>{{printf "%.2f" .Guard.RiskScore}}</td><td>{{.Guard.WarningMessage}}</td></tr>
{{end}}
</table>

<h2>Sector breakdown</h2>
<table>
<tr><th>Sector</th><th>Candidates</th><th>Avg score</th></tr>
{{range .SectorBreakdown}}
<tr><td>{{.Sector}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .AvgScore}}</td></tr>
{{end}}
</table>

</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"entryStop":   func(price float64) float64 { return price * 0.97 },
	"entryTarget": func(price float64) float64 { return price * 1.06 },
	"daysStr": func(d *int) string {
		if d == nil {
			return ""
		}
		return strconv.Itoa(*d)
	},
}).Parse(htmlTemplateSource))

type sectorStat struct {
	Sector   domain.Sector
	Count    int
	AvgScore float64
}

type htmlData struct {
	RunDate         string
	NoCandidates    bool
	ReasonCounts    map[string]int
	Market          domain.MarketSentiment
	TopBuys         []domain.Opportunity
	Watchlist       []domain.Opportunity
	Warnings        []domain.Opportunity
	SectorBreakdown []sectorStat
}

func writeHTMLReport(path string, runDate time.Time, market domain.MarketSentiment, opportunities []domain.Opportunity, reasonCounts map[string]int) error {
	data := buildHTMLData(runDate, market, opportunities, reasonCounts)
	return writeAtomic(path, func(f *os.File) error {
		return htmlTemplate.Execute(f, data)
	})
}

func buildHTMLData(runDate time.Time, market domain.MarketSentiment, opportunities []domain.Opportunity, reasonCounts map[string]int) htmlData {
	data := htmlData{
		RunDate:      runDate.Format("2006-01-02"),
		NoCandidates: len(opportunities) == 0,
		ReasonCounts: reasonCounts,
		Market:       market,
	}

	for _, o := range opportunities {
		if o.Prediction.Direction == domain.DirectionBuy {
			data.TopBuys = append(data.TopBuys, o)
		}
		if o.Prediction.FinalConfidence >= 60 && o.Prediction.FinalConfidence < 75 {
			data.Watchlist = append(data.Watchlist, o)
		}
		if o.Guard.SkipTrading || o.Guard.HasUpcomingEvent {
			data.Warnings = append(data.Warnings, o)
		}
	}
	if len(data.TopBuys) > 10 {
		data.TopBuys = data.TopBuys[:10]
	}

	data.SectorBreakdown = sectorBreakdown(opportunities)
	return data
}

func sectorBreakdown(opportunities []domain.Opportunity) []sectorStat {
	sums := map[domain.Sector]float64{}
	counts := map[domain.Sector]int{}
	for _, o := range opportunities {
		sums[o.Candidate.Sector] += o.Score
		counts[o.Candidate.Sector]++
	}
	stats := make([]sectorStat, 0, len(counts))
	for sector, count := range counts {
		stats = append(stats, sectorStat{Sector: sector, Count: count, AvgScore: sums[sector] / float64(count)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Sector < stats[j].Sector })
	return stats
}
