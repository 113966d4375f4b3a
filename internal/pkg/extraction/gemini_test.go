package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoffDoublesFromOneSecond(t *testing.T) {
	assert.Equal(t, time.Second, retryBackoff(1))
	assert.Equal(t, 2*time.Second, retryBackoff(2))
	assert.Equal(t, 4*time.Second, retryBackoff(3))
}
