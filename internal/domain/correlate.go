package domain

// Correlate inner-joins CME links to GST links where the CME's referenced
// GST id equals the GST's own id. Every matching combination is returned,
// including repeats; row order is not significant.
func Correlate(cmeLinks, gstLinks []NormalizedLink) []CorrelatedPair {
	byGST := make(map[string][]NormalizedLink, len(gstLinks))
	for _, g := range gstLinks {
		byGST[g.SourceID] = append(byGST[g.SourceID], g)
	}

	var pairs []CorrelatedPair
	for _, c := range cmeLinks {
		for _, g := range byGST[c.ReferencedID] {
			pairs = append(pairs, CorrelatedPair{
				CMEID:         c.SourceID,
				CMETime:       c.SourceTime,
				GSTActivityID: c.ReferencedID,
				GSTID:         g.SourceID,
				GSTTime:       g.SourceTime,
				CMEActivityID: g.ReferencedID,
				TimeDiff:      HoursBetween(c.SourceTime, g.SourceTime),
			})
		}
	}
	return pairs
}
