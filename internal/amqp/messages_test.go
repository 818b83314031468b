package amqp

import "testing"

func TestRecordSyncMessageRoundTrip(t *testing.T) {
	msg := NewRecordSyncMessage(KindTransaction, "tx-42", "alice")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := RecordSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("RecordSyncMessageFromJSON() error = %v", err)
	}

	if decoded.Kind != KindTransaction {
		t.Errorf("Kind = %q, want %q", decoded.Kind, KindTransaction)
	}
	if decoded.Op != OpUpsert {
		t.Errorf("Op = %q, want %q", decoded.Op, OpUpsert)
	}
	if decoded.ID != "tx-42" || decoded.UserID != "alice" {
		t.Errorf("identifiers = (%q, %q), want (tx-42, alice)", decoded.ID, decoded.UserID)
	}
	if decoded.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewRecordDeleteMessage(t *testing.T) {
	msg := NewRecordDeleteMessage(KindTransaction, "tx-7", "bob")
	if msg.Op != OpDelete {
		t.Errorf("Op = %q, want %q", msg.Op, OpDelete)
	}
}

func TestRecordSyncMessageFromJSONInvalid(t *testing.T) {
	if _, err := RecordSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
