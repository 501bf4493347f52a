package meter

import "github.com/travnick/wmbusmeters/internal/dvparser"

// AnalysisResult is one driver's showing in Analyze's best-driver scan.
type AnalysisResult struct {
	DriverName string
	Fields     map[string]float64
	FieldCount int
}

// Analyze tries every driver registered in reg against entries and reports
// the one that decoded the most fields. Returns a zero-value, zero-count result if the
// registry is empty or no driver decoded anything.
func Analyze(reg *Registry, entries *dvparser.Entries) AnalysisResult {
	var best AnalysisResult
	for _, d := range reg.drivers {
		values := decodeFields(d.Fields, entries)
		if len(values) > best.FieldCount {
			best = AnalysisResult{DriverName: d.Name, Fields: values, FieldCount: len(values)}
		}
	}
	return best
}

// AnalyzeAll returns every driver's decode attempt, sorted by nothing in
// particular (registration order) — useful for a verbose analysis report
// that wants to show every candidate, not just the winner.
func AnalyzeAll(reg *Registry, entries *dvparser.Entries) []AnalysisResult {
	out := make([]AnalysisResult, 0, len(reg.drivers))
	for _, d := range reg.drivers {
		values := decodeFields(d.Fields, entries)
		out = append(out, AnalysisResult{DriverName: d.Name, Fields: values, FieldCount: len(values)})
	}
	return out
}
