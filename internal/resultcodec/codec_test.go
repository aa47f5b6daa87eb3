package resultcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sermir2003/stoilo/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		status  domain.ResultStatus
		payload []byte
	}{
		{"success", domain.ResultStatusSuccess, []byte(`{"value":42}`)},
		{"user_error", domain.ResultStatusUserError, []byte("ZeroDivisionError")},
		{"system_error", domain.ResultStatusSystemError, []byte("segfault")},
		{"empty payload", domain.ResultStatusSuccess, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := Encode(c.status, c.payload)
			require.NoError(t, err)

			status, payload, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.payload, payload)
		})
	}
}

func TestEncodeRejectsInvalidStatus(t *testing.T) {
	_, err := Encode(domain.ResultStatus(9), []byte("x"))
	assert.Error(t, err)
}

func TestDecodeStatusByte(t *testing.T) {
	status, payload, err := Decode([]byte("0hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultStatusSuccess, status)
	assert.Equal(t, []byte("hello"), payload)
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, _, err := Decode(nil)
	assert.Error(t, err)
}

func TestDecodeRejectsCorruptedStatusByte(t *testing.T) {
	_, _, err := Decode([]byte("9hello"))
	assert.Error(t, err)
}
