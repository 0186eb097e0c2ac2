package discovery

// Progress is the import banner
type Progress struct {
	// ImportID identifies the item being imported
	ImportID string `json:"importId,omitempty"`
	// Current is the label of the item being imported
	Current    string `json:"current,omitempty"`
	Processed  int    `json:"processed"`
	Queued     int    `json:"queued"`
	BytesRead  int64  `json:"bytesRead"`
	BytesTotal int64  `json:"bytesTotal"`
	// Done is set once the queue drained; the banner clears shortly after
	Done bool `json:"done"`
}

// Ratio is the aggregate completion: processed / (processed + queued + 1) while
// importing, and 1 once done
func (p Progress) Ratio() float64 {
	if p.Done {
		return 1
	}
	return float64(p.Processed) / float64(p.Processed+p.Queued+1)
}

// ItemRatio is the byte progress of the current item, or -1 when unknown
func (p Progress) ItemRatio() float64 {
	if p.BytesTotal <= 0 {
		return -1
	}
	return min(float64(p.BytesRead)/float64(p.BytesTotal), 1)
}
