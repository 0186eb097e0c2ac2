package sync

// Progress is the published state of a pass
type Progress struct {
	PassID string `json:"passId"`
	// Total is the number of targets that are still active
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Phase     Phase  `json:"phase"`
	Current   string `json:"current,omitempty"`
	// CurrentUID is the bundle being processed; -1 when none
	CurrentUID int   `json:"currentUid"`
	BytesRead  int64 `json:"bytesRead,omitempty"`
	// BytesTotal is zero when the size is unknown
	BytesTotal int64 `json:"bytesTotal,omitempty"`
}

// Terminal reports whether the pass has finished
func (p Progress) Terminal() bool {
	return p.Phase == PhaseCompleted || p.Phase == PhaseFailed
}

// Ratio returns the completed fraction of the pass, including the current download
func (p Progress) Ratio() float64 {
	total := max(p.Total, 1)
	base := float64(min(p.Completed, total)) / float64(total)
	if p.Phase != PhaseDownloading || p.BytesTotal <= 0 {
		return base
	}
	part := float64(p.BytesRead) / float64(p.BytesTotal)
	return min(base+min(part, 1)/float64(total), 1)
}
