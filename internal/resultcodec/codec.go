// Package resultcodec implements the bit-exact on-disk format for a
// worker result file: a single ASCII status digit followed immediately
// by the payload, with no length prefix (spec §4.8).
package resultcodec

import (
	"fmt"

	"github.com/sermir2003/stoilo/internal/domain"
)

// Encode writes byte '0'+status followed by payload. For
// ResultStatusSuccess payload must be UTF-8 JSON; for the two error
// statuses it is a UTF-8 diagnostic string. Encode does not validate
// the payload's content, only the status value.
func Encode(status domain.ResultStatus, payload []byte) ([]byte, error) {
	if !domain.ValidResultStatus(int32(status)) {
		return nil, fmt.Errorf("resultcodec: invalid result status %d", status)
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, byte('0')+byte(status))
	out = append(out, payload...)
	return out, nil
}

// Decode splits a result file's bytes into its status and payload. The
// first byte must be the ASCII digit '0', '1' or '2'; anything else is
// corruption and is rejected rather than guessed at.
func Decode(data []byte) (domain.ResultStatus, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("resultcodec: empty result file")
	}
	digit := data[0]
	if digit < '0' || digit > '2' {
		return 0, nil, fmt.Errorf("resultcodec: corrupted status byte %q", digit)
	}
	status := domain.ResultStatus(digit - '0')
	payload := data[1:]
	return status, payload, nil
}
