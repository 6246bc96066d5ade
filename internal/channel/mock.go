package channel

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

//////////////////////////
// Example Mock Sender  //
//////////////////////////

// MockSendFunc simulates a provider with 90% success. Failures are
// retryable, the way a real provider timeout would be.
func MockSendFunc(channel string) SendFunc {
	return func(ctx context.Context, address, content, correlationID string) (string, error) {
		if rand.Float64() < 0.9 {
			return channel + "-" + uuid.NewString(), nil
		}
		return "", NewRetryable(fmt.Errorf("mock %s provider unavailable", channel))
	}
}
