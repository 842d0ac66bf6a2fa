package ai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalFlexible attempts to unmarshal JSON into out, repairing malformed
// input before giving up. Inference backends occasionally emit truncated or
// loosely quoted stream chunks; callers that can tolerate losing a chunk
// should treat an error here as "skip and continue".
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), out)
}
