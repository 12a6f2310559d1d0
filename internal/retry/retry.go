package retry

import (
	"time"

	wbfretry "github.com/wb-go/wbf/retry"
)

// DefaultStrategy is used for publishing and fetching Kafka messages.
var DefaultStrategy = wbfretry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2.0,
}
