// internal/domain/request.go
package domain

import (
	"github.com/google/uuid"
)

// RequestType is the kind of request a patron placed on an item.
type RequestType string

const (
	RequestTypeHold   RequestType = "Hold"
	RequestTypeRecall RequestType = "Recall"
	RequestTypePage   RequestType = "Page"
)

// RequestStatus is the fulfilment state of a request.
type RequestStatus string

const (
	RequestStatusOpenNotYetFilled   RequestStatus = "Open - Not yet filled"
	RequestStatusOpenAwaitingPickup RequestStatus = "Open - Awaiting pickup"
)

// Request is one entry in an item's request queue.
type Request struct {
	ID          uuid.UUID
	ItemID      uuid.UUID
	RequesterID uuid.UUID
	Type        RequestType
	Status      RequestStatus
	Position    int
}

// IsOpen reports whether the request still awaits fulfilment.
func (r Request) IsOpen() bool {
	return r.Status == RequestStatusOpenNotYetFilled ||
		r.Status == RequestStatusOpenAwaitingPickup
}

// RequestQueue is the position-ordered set of open requests for an item.
type RequestQueue struct {
	Requests []Request
}

// TopRequest returns the open request at the head of the queue.
func (q RequestQueue) TopRequest() (Request, bool) {
	for _, r := range q.Requests {
		if r.IsOpen() {
			return r, true
		}
	}
	return Request{}, false
}
