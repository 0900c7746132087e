package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapSNSEnvelope(t *testing.T) {
	wrapped := []byte(`{"Type":"Notification","Message":"{\"order_id\":\"abc\"}"}`)
	assert.Equal(t, `{"order_id":"abc"}`, string(UnwrapSNSEnvelope(wrapped)))

	raw := []byte(`{"order_id":"abc","status":"delivered"}`)
	assert.Equal(t, string(raw), string(UnwrapSNSEnvelope(raw)))

	assert.Equal(t, "not json", string(UnwrapSNSEnvelope([]byte("not json"))))
}
