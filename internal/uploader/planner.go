package uploader

const (
	kiB = 1 << 10
	miB = 1 << 20

	// DefaultChunkSize is the part size used for multipart uploads.
	DefaultChunkSize = 10 * miB
	// DefaultLargeFileThreshold is the size at which uploads switch from a
	// single direct PUT to the multipart session.
	DefaultLargeFileThreshold = 50 * miB
	// DefaultMaxConcurrency bounds how many part PUTs run at once.
	DefaultMaxConcurrency = 3
	// DefaultMaxUploadSize is the largest file accepted for upload.
	DefaultMaxUploadSize = 500 * miB
)

type Strategy int

const (
	// Direct uploads the whole file with one presigned PUT.
	Direct Strategy = iota
	// Multipart splits the file into parts uploaded through a multipart session.
	Multipart
)

func (s Strategy) String() string {
	if s == Multipart {
		return "multipart"
	}
	return "direct"
}

// Range is the contiguous byte range of one part. Number is the 1-based part
// number the storage backend expects.
type Range struct {
	Start  int64
	Length int64
	Number int64
}

type Plan struct {
	Strategy Strategy
	Size     int64
	Ranges   []Range
}

func (p Plan) TotalParts() int { return len(p.Ranges) }

// PlanUpload decides the upload strategy for a file of the given size and,
// for multipart uploads, computes part ranges that exactly partition
// [0, size). The last range is shorter than chunkSize when size is not an
// exact multiple.
func PlanUpload(size, chunkSize, threshold int64) Plan {
	if size < threshold {
		return Plan{Strategy: Direct, Size: size}
	}
	ranges := make([]Range, 0, (size+chunkSize-1)/chunkSize)
	for start := int64(0); start < size; start += chunkSize {
		length := chunkSize
		if start+length > size {
			length = size - start
		}
		ranges = append(ranges, Range{
			Start:  start,
			Length: length,
			Number: int64(len(ranges)) + 1,
		})
	}
	return Plan{Strategy: Multipart, Size: size, Ranges: ranges}
}
