package firehose

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testServiceDID = "did:plc:zzzzzzzzzzzzzzzzzzzzzzzz"
	testLikerDID   = "did:plc:aaaaaaaaaaaaaaaaaaaaaaaa"
	testLikeColl   = "app.bsky.feed.like"
	testPostColl   = "app.bsky.feed.post"
)

func likePayload(did, subjectURI string, timeUS int64) []byte {
	return []byte(fmt.Sprintf(`{
		"did": %q,
		"time_us": %d,
		"kind": "commit",
		"commit": {
			"operation": "create",
			"collection": %q,
			"rkey": "3l7likercord2",
			"record": {
				"$type": %q,
				"subject": {"uri": %q, "cid": "bafyrei"}
			}
		}
	}`, did, timeUS, testLikeColl, testLikeColl, subjectURI))
}

func TestExtractWantedEvent(t *testing.T) {
	uri := "at://" + testServiceDID + "/" + testPostColl + "/3l7jy3e7hhp2f"
	trigger, timeUS, reason := extract(likePayload(testLikerDID, uri, 1700000000000001), testLikeColl, testServiceDID, testPostColl)

	require.Empty(t, reason)
	require.NotNil(t, trigger)
	assert.Equal(t, testLikerDID, trigger.Subject)
	assert.Equal(t, "3l7jy3e7hhp2f", trigger.RecordKey)
	assert.Equal(t, int64(1700000000000001), trigger.TimeUS)
	assert.Equal(t, int64(1700000000000001), timeUS)
}

func TestExtractRejections(t *testing.T) {
	ownPost := "at://" + testServiceDID + "/" + testPostColl + "/3l7jy3e7hhp2f"

	tests := []struct {
		name    string
		raw     []byte
		reason  string
		hasTime bool
	}{
		{
			name:   "malformed json",
			raw:    []byte(`{"did": "did:plc:`),
			reason: dropMalformed,
		},
		{
			name:    "identity event",
			raw:     []byte(`{"did": "` + testLikerDID + `", "time_us": 42, "kind": "identity"}`),
			reason:  dropKind,
			hasTime: true,
		},
		{
			name: "delete operation",
			raw: []byte(`{"did": "` + testLikerDID + `", "time_us": 42, "kind": "commit",
				"commit": {"operation": "delete", "collection": "` + testLikeColl + `", "rkey": "3l7likercord2"}}`),
			reason:  dropOperation,
			hasTime: true,
		},
		{
			name: "wrong collection",
			raw: []byte(`{"did": "` + testLikerDID + `", "time_us": 42, "kind": "commit",
				"commit": {"operation": "create", "collection": "app.bsky.feed.repost", "rkey": "3l7likercord2",
					"record": {"subject": {"uri": "` + ownPost + `"}}}}`),
			reason:  dropCollection,
			hasTime: true,
		},
		{
			name: "missing subject",
			raw: []byte(`{"did": "` + testLikerDID + `", "time_us": 42, "kind": "commit",
				"commit": {"operation": "create", "collection": "` + testLikeColl + `", "rkey": "3l7likercord2",
					"record": {}}}`),
			reason:  dropNoSubject,
			hasTime: true,
		},
		{
			name:    "like on someone else's post",
			raw:     likePayload(testLikerDID, "at://did:plc:bbbbbbbbbbbbbbbbbbbbbbbb/"+testPostColl+"/3l7jy3e7hhp2f", 42),
			reason:  dropForeignSubject,
			hasTime: true,
		},
		{
			name:    "like on non-post record",
			raw:     likePayload(testLikerDID, "at://"+testServiceDID+"/app.bsky.feed.generator/3l7jy3e7hhp2f", 42),
			reason:  dropForeignSubject,
			hasTime: true,
		},
		{
			name:    "subject uri not an at-uri",
			raw:     likePayload(testLikerDID, "https://example.com/post/1", 42),
			reason:  dropForeignSubject,
			hasTime: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, timeUS, reason := extract(tt.raw, testLikeColl, testServiceDID, testPostColl)
			assert.Nil(t, trigger)
			assert.Equal(t, tt.reason, reason)
			if tt.hasTime {
				// Unwanted events still advance the cursor
				assert.Equal(t, int64(42), timeUS)
			}
		})
	}
}

func TestParseSubjectURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		rkey string
		ok   bool
	}{
		{"valid", "at://" + testServiceDID + "/" + testPostColl + "/3l7jy3e7hhp2f", "3l7jy3e7hhp2f", true},
		{"wrong authority", "at://did:plc:bbbbbbbbbbbbbbbbbbbbbbbb/" + testPostColl + "/3l7jy3e7hhp2f", "", false},
		{"wrong collection", "at://" + testServiceDID + "/app.bsky.graph.list/3l7jy3e7hhp2f", "", false},
		{"empty rkey", "at://" + testServiceDID + "/" + testPostColl + "/", "", false},
		{"extra segment", "at://" + testServiceDID + "/" + testPostColl + "/3l7jy3e7hhp2f/extra", "", false},
		{"no scheme", testServiceDID + "/" + testPostColl + "/3l7jy3e7hhp2f", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rkey, ok := parseSubjectURI(tt.uri, testServiceDID, testPostColl)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.rkey, rkey)
		})
	}
}
