package entity

import "time"

// ImageRecord is one presentable gallery image produced by a catalog load.
// The access URL is re-minted on every load and is not stable between loads.
type ImageRecord struct {
	Key          string    // object path within the bucket, unique per load
	AccessURL    string    // signed, time-limited read URL
	SizeBytes    int64     // 0 when the listing did not report a size
	LastModified time.Time // zero when the listing did not report it
}
