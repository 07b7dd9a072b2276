package charging

import "gonum.org/v1/gonum/floats"

// PowerSummary describes the charging power installed in a pool.
type PowerSummary struct {
	EVSEs          int     `json:"evses"`
	KnownEVSEs     int     `json:"knownEvses"`
	TotalKW        float64 `json:"totalKW"`
	MaxKW          float64 `json:"maxKW"`
	MeanKW         float64 `json:"meanKW"`
	GridLimitKW    float64 `json:"gridLimitKW,omitempty"`
	Oversubscribed bool    `json:"oversubscribed"`
}

// PowerSummary sums the maximum power of all EVSEs with a known rating and
// compares it with the pool grid connection limit.
func (p *ChargingPool) PowerSummary() PowerSummary {
	evses := p.EVSEs()
	sum := PowerSummary{EVSEs: len(evses)}
	kw := make([]float64, 0, len(evses))
	for _, e := range evses {
		if mp := e.MaxPower(); mp != nil {
			kw = append(kw, *mp)
		}
	}
	sum.KnownEVSEs = len(kw)
	if len(kw) > 0 {
		sum.TotalKW = floats.Sum(kw)
		sum.MaxKW = floats.Max(kw)
		sum.MeanKW = sum.TotalKW / float64(len(kw))
	}
	if limit := p.MaxPower(); limit != nil {
		sum.GridLimitKW = *limit
		sum.Oversubscribed = sum.TotalKW > *limit
	}
	return sum
}
