package thumbnail

import (
	"fmt"
	"strings"
)

// Order selects which waiting request is served next.
type Order int

const (
	// OrderLIFO serves the most recently submitted request first.
	OrderLIFO Order = iota
	// OrderFIFO serves requests in submission order.
	OrderFIFO
)

func (o Order) String() string {
	switch o {
	case OrderLIFO:
		return "lifo"
	case OrderFIFO:
		return "fifo"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder parses "lifo" or "fifo", case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lifo", "":
		return OrderLIFO, nil
	case "fifo":
		return OrderFIFO, nil
	}
	return 0, fmt.Errorf("unknown queue order %q", s)
}

// queue is an unbounded list of waiting requests.
type queue struct {
	order Order
	items []*request
}

func (q *queue) push(r *request) {
	q.items = append(q.items, r)
}

func (q *queue) pop() (*request, bool) {
	n := len(q.items)
	if n == 0 {
		return nil, false
	}

	var r *request
	if q.order == OrderFIFO {
		r = q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
	} else {
		r = q.items[n-1]
		q.items[n-1] = nil
		q.items = q.items[:n-1]
	}
	return r, true
}

func (q *queue) len() int {
	return len(q.items)
}

func (q *queue) clear() []*request {
	items := q.items
	q.items = nil
	return items
}
