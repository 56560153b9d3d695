package pdflayout

import "github.com/pkg/errors"

// ErrInvalidProcessorCount is returned when the configured processor count
// is not a positive number.
var ErrInvalidProcessorCount = errors.New("number of processors must be greater than 0")

// pageSegment is a contiguous page range assigned to one worker. Start is
// inclusive, End exclusive.
type pageSegment struct {
	Start int
	End   int
}

// pageSegments partitions [0, numPages) into at most maxProcessors
// contiguous ranges of near-equal size, earlier segments taking the
// remainder pages. A zero-page document still yields one empty segment so
// worker accounting stays uniform.
func pageSegments(numPages, maxProcessors int) ([]pageSegment, error) {
	if maxProcessors <= 0 {
		return nil, ErrInvalidProcessorCount
	}

	chunkSize := numPages / maxProcessors
	remainder := numPages % maxProcessors

	segments := make([]pageSegment, 0, maxProcessors)
	start := 0
	for i := 0; i < maxProcessors; i++ {
		extra := 0
		if i < remainder {
			extra = 1
		}
		end := start + chunkSize + extra
		if end > numPages {
			end = numPages
		}
		segments = append(segments, pageSegment{Start: start, End: end})
		start = end

		if start >= numPages {
			break
		}
	}
	return segments, nil
}
