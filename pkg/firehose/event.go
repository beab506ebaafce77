package firehose

import (
	"encoding/json"
	"strings"
)

// Wire shapes of the upstream commit feed. Only the fields the labeler
// consumes are declared; everything else in the payload is ignored.
type feedEvent struct {
	DID    string      `json:"did"`
	TimeUS int64       `json:"time_us"`
	Kind   string      `json:"kind"`
	Commit *feedCommit `json:"commit"`
}

type feedCommit struct {
	Operation  string      `json:"operation"`
	Collection string      `json:"collection"`
	RKey       string      `json:"rkey"`
	Record     *feedRecord `json:"record"`
}

type feedRecord struct {
	Subject *feedSubject `json:"subject"`
}

type feedSubject struct {
	URI string `json:"uri"`
}

// Trigger is a validated (subject, record key) pair delivered to the
// reconcile handler.
type Trigger struct {
	Subject   string
	RecordKey string
	TimeUS    int64
}

// Drop reasons for the events-dropped metric
const (
	dropMalformed      = "malformed"
	dropKind           = "kind"
	dropOperation      = "operation"
	dropCollection     = "collection"
	dropNoSubject      = "no_subject"
	dropForeignSubject = "foreign_subject"
	dropDuplicate      = "duplicate"
)

// extract parses a raw feed payload into a Trigger. The second return is
// the drop reason, empty when the event is wanted. Unwanted shapes are
// rejected here at the boundary, before any business logic runs; events
// that carry a usable time_us still return it so the cursor can advance
// past them.
func extract(raw []byte, likeCollection, serviceDID, postCollection string) (*Trigger, int64, string) {
	var ev feedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, 0, dropMalformed
	}

	if ev.Kind != "commit" || ev.Commit == nil {
		return nil, ev.TimeUS, dropKind
	}
	commit := ev.Commit

	// Deletes carry no record, so an unlike cannot name the liked post;
	// only creates are consumed.
	if commit.Operation != "create" {
		return nil, ev.TimeUS, dropOperation
	}
	if commit.Collection != likeCollection {
		return nil, ev.TimeUS, dropCollection
	}
	if commit.Record == nil || commit.Record.Subject == nil {
		return nil, ev.TimeUS, dropNoSubject
	}

	// The liked post must live in the labeler's own post collection:
	// at://<serviceDID>/<postCollection>/<rkey>
	rkey, ok := parseSubjectURI(commit.Record.Subject.URI, serviceDID, postCollection)
	if !ok {
		return nil, ev.TimeUS, dropForeignSubject
	}

	return &Trigger{
		Subject:   ev.DID,
		RecordKey: rkey,
		TimeUS:    ev.TimeUS,
	}, ev.TimeUS, ""
}

// parseSubjectURI extracts the trailing record key from an at-uri,
// requiring the authority and collection to match the labeler's own.
func parseSubjectURI(uri, serviceDID, postCollection string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != serviceDID || parts[1] != postCollection {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
