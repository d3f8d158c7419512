package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/collab/internal/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		wantTyp string
	}{
		{
			name:    "valid envelope",
			data:    `{"type":"cursor:move","sessionId":"s1","payload":{"x":1,"y":2}}`,
			wantTyp: "cursor:move",
		},
		{
			name:    "thread scoped",
			data:    `{"type":"typing:start","threadId":"t1"}`,
			wantTyp: "typing:start",
		},
		{
			name:    "not json",
			data:    `}{`,
			wantErr: true,
		},
		{
			name:    "missing type",
			data:    `{"sessionId":"s1"}`,
			wantErr: true,
		},
		{
			name:    "wrong type shape",
			data:    `{"type":42}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := decode([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, errBadEnvelope)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTyp, env.Type)
		})
	}
}

func TestEncodeOmitsEmptyScopes(t *testing.T) {
	frame, err := encode("pong", "", "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(frame))

	frame, err = encode("user:typing", "", domain.ThreadID("t1"), map[string]string{"userId": "u1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user:typing","threadId":"t1","payload":{"userId":"u1"}}`, string(frame))
}
