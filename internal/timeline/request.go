package timeline

// RequestKind names the edit a finalized request asks for
type RequestKind string

const (
	RequestTrim         RequestKind = "trim"
	RequestSplit        RequestKind = "split"
	RequestDeleteRange  RequestKind = "delete_range"
	RequestExtractRange RequestKind = "extract_range"
)

// Request is one finalized edit handed to the processor. Range is set for
// trim/delete/extract, At for split.
type Request struct {
	Kind  RequestKind `json:"kind"`
	Asset string      `json:"asset"`
	Range Range       `json:"range"`
	At    float64     `json:"at,omitempty"`
}

// Sink receives requests emitted by the controller. Submit must not call
// back into the controller; long work belongs on another goroutine.
type Sink interface {
	Submit(Request)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Request)

func (f SinkFunc) Submit(r Request) { f(r) }
