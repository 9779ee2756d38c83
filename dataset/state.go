package dataset

// DownloadState is the lifecycle stage of a tile's data fetch.
type DownloadState int32

const (
	Unattempted DownloadState = iota
	Started
	Complete
	Failed
)

func (s DownloadState) String() string {
	switch s {
	case Unattempted:
		return "Unattempted"
	case Started:
		return "Started"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// RetryPolicy decides whether failed tiles are downloaded again.
type RetryPolicy int

const (
	// RetryNever leaves failed tiles failed for the lifetime of the dataset.
	RetryNever RetryPolicy = iota
	// RetryOnNextPass lets the scheduler score failed tiles again on later calls.
	RetryOnNextPass
)

func (p RetryPolicy) String() string {
	if p == RetryOnNextPass {
		return "next-pass"
	}
	return "never"
}
