package inspector

import "math"

// advertiserColumn and campaignColumn are the two pivot dimensions the
// summary counts over.
const (
	advertiserColumn  = "ADVERTISER_NAME"
	campaignColumn    = "CREATIVE_CAMPAIGN_NAME"
	impressionsColumn = "IMPRESSIONS"
)

// Summary is the aggregate snapshot over the entire store, independent of
// any view filters. ImpressionFaultPercent is nil when the dataset has no
// impressions column at all, which is distinct from a 0% result.
type Summary struct {
	Total                  int            `json:"total"`
	Faulty                 int            `json:"faulty"`
	FaultPercent           float64        `json:"fault_percent"`
	ImpressionFaultPercent *float64       `json:"impression_fault_percent"`
	Advertisers            map[string]int `json:"advertisers"`
	Campaigns              map[string]int `json:"campaigns"`
}

// Summarize walks every record once and computes totals, the fault
// percentage, the impression-weighted fault percentage and the two
// frequency tables. Records missing a pivot field contribute to neither
// table.
func Summarize(s *Store) *Summary {
	sum := &Summary{
		Advertisers: make(map[string]int),
		Campaigns:   make(map[string]int),
	}

	hasImpressions := false
	if first, ok := s.Get(0); ok {
		_, hasImpressions = first.Fields[impressionsColumn]
	}

	var totalImp, faultyImp float64
	for _, rec := range s.Records() {
		sum.Total++
		if rec.IsFaulty {
			sum.Faulty++
		}
		if c, ok := rec.Fields[advertiserColumn]; ok && !c.IsEmpty() {
			sum.Advertisers[c.String()]++
		}
		if c, ok := rec.Fields[campaignColumn]; ok && !c.IsEmpty() {
			sum.Campaigns[c.String()]++
		}
		if hasImpressions {
			n, ok := rec.Fields[impressionsColumn].Float()
			if !ok {
				n = 0
			}
			totalImp += n
			if rec.IsFaulty {
				faultyImp += n
			}
		}
	}

	if sum.Total > 0 {
		sum.FaultPercent = round2(float64(sum.Faulty) / float64(sum.Total) * 100)
	}
	if hasImpressions {
		pct := 0.0
		if totalImp > 0 {
			pct = round2(faultyImp / totalImp * 100)
		}
		sum.ImpressionFaultPercent = &pct
	}
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
