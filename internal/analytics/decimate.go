package analytics

// DefaultMaxPoints is the point budget used when none is given.
const DefaultMaxPoints = 1000

// Decimate downsamples buckets to roughly maxPoints by keeping every
// stride-th element. The last bucket is always kept, so the result may hold
// maxPoints+1 entries. Input within budget is returned as is.
func Decimate(buckets []Bucket, maxPoints int) []Bucket {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if len(buckets) <= maxPoints {
		return buckets
	}

	stride := (len(buckets) + maxPoints - 1) / maxPoints

	result := make([]Bucket, 0, maxPoints+1)
	lastKept := -1
	for i := 0; i < len(buckets); i += stride {
		result = append(result, buckets[i])
		lastKept = i
	}

	if lastKept != len(buckets)-1 {
		result = append(result, buckets[len(buckets)-1])
	}

	return result
}
