package event

import "sync"

// ErrorPayload describes a degradable engine failure attached to a signal
type ErrorPayload struct {
	Op  string
	Err string
}

var errorPayloadPool = sync.Pool{
	New: func() any {
		return &ErrorPayload{}
	},
}

// AcquireErrorPayload returns a pooled payload
func AcquireErrorPayload(op, err string) *ErrorPayload {
	p := errorPayloadPool.Get().(*ErrorPayload)
	p.Op = op
	p.Err = err
	return p
}

// ReleaseErrorPayload returns payload to pool
func ReleaseErrorPayload(p *ErrorPayload) {
	if p == nil {
		return
	}
	p.Op = ""
	p.Err = ""
	errorPayloadPool.Put(p)
}
