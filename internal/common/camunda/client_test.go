// internal/common/camunda/client_test.go
package camunda

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "deadline exceeded", err: errors.New("rpc error: context deadline exceeded"), want: true},
		{name: "broker unavailable", err: errors.New("rpc error: code = Unavailable"), want: true},
		{name: "invalid argument", err: errors.New("rpc error: code = InvalidArgument"), want: false},
		{name: "permission denied", err: errors.New("rpc error: code = PermissionDenied"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(tt.err))
		})
	}
}
