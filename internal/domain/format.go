package domain

// Format describes one resolved media variant. It is produced by format
// resolution and treated as already validated.
type Format struct {
	// URL is the playable source URL
	URL string

	// ContentLength is the advertised size in bytes, nil when unknown
	ContentLength *int64

	// Adaptive reports whether the source serves independent byte ranges
	Adaptive bool

	// ClientVersion is sent as the cver parameter of part requests
	ClientVersion string

	// Itag identifies the variant
	Itag int
}

// HasContentLength returns true if the length is advertised
func (f *Format) HasContentLength() bool {
	return f.ContentLength != nil
}

// Length returns the advertised length, or -1 when unknown
func (f *Format) Length() int64 {
	if f.ContentLength == nil {
		return -1
	}
	return *f.ContentLength
}

// Chunkable returns true if the format must be fetched part by part.
func (f *Format) Chunkable() bool {
	return f.Adaptive && f.ContentLength != nil
}

// Int64 returns a pointer to v, for optional lengths and overrides
func Int64(v int64) *int64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}
