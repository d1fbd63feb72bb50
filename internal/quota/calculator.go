package quota

import "fmt"

// bytesPerGB converts the console's memory unit (GiB) to the ledger's base
// unit (bytes).
const bytesPerGB = int64(1) << 30

// Shape is the per-replica resource form of a job request. CPUShare is the
// soft cpu allocation and CPULimit the hard cap, both in millicores;
// MemoryLimitGB is the per-replica memory limit in GiB.
type Shape struct {
	Replicas      int64
	CPUShare      int64
	CPULimit      int64
	MemoryLimitGB int64
}

// Requirement is the total demand of a shape across all replicas.
type Requirement struct {
	CPUMillicores int64
	MemoryBytes   int64
}

type InvalidShapeError struct {
	Field string
	Value int64
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid job shape: %s must be positive, got %d", e.Field, e.Value)
}

// Requirements derives the total cpu and memory demand of a shape.
func Requirements(s Shape) (Requirement, error) {
	if s.Replicas <= 0 {
		return Requirement{}, &InvalidShapeError{Field: "replicate", Value: s.Replicas}
	}
	if s.CPUShare <= 0 {
		return Requirement{}, &InvalidShapeError{Field: "cpuShare", Value: s.CPUShare}
	}
	if s.CPULimit <= 0 {
		return Requirement{}, &InvalidShapeError{Field: "cpuLimit", Value: s.CPULimit}
	}
	if s.MemoryLimitGB <= 0 {
		return Requirement{}, &InvalidShapeError{Field: "memoryLimit", Value: s.MemoryLimitGB}
	}
	return Requirement{
		CPUMillicores: s.Replicas * s.CPUShare,
		MemoryBytes:   s.Replicas * s.MemoryLimitGB * bytesPerGB,
	}, nil
}
