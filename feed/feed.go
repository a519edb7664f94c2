// Package feed carries booking row changes over Redis pub/sub. Every
// mutation path publishes the full row; projectors subscribe per booking
// and treat each delivery as a partial update. Delivery is at-least-once
// with no ordering guarantee beyond approximate commit order, which is
// exactly the contract the projector is built to defend against.
package feed

import "fmt"

func channelFor(bookingID string) string {
	return fmt.Sprintf("booking:changes:%s", bookingID)
}
