package plans

import (
	"encoding/json"
	"testing"
)

func TestFromRecordKeepsRawAndTypedFields(t *testing.T) {
	raw := json.RawMessage(`{"packageCode":"CKH491","name":"Asia 5GB","region":"Asia","country":"JP,KR","dataGb":5,"validityDays":30,"price":19900,"status":"active","speed":"5G","locationNetworkList":[{"locationName":"Japan"}]}`)

	plan, err := FromRecord(raw)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if plan.PackageCode != "CKH491" || plan.Price != 19900 || plan.Country != "JP,KR" {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.DataGB == nil || *plan.DataGB != 5 || plan.ValidityDays == nil || *plan.ValidityDays != 30 {
		t.Fatalf("unexpected numerics %+v", plan)
	}
	if string(plan.Raw) != string(raw) {
		t.Fatalf("expected raw record preserved, got %s", plan.Raw)
	}
}

func TestFromRecordToleratesMistypedFields(t *testing.T) {
	plan, err := FromRecord(json.RawMessage(`{"packageCode":"CKH492","name":7,"dataGb":"1.5","validityDays":"soon","price":"4900","status":null}`))
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if plan.Price != 4900 {
		t.Fatalf("expected numeric string price, got %d", plan.Price)
	}
	if plan.DataGB == nil || *plan.DataGB != 1.5 {
		t.Fatalf("expected dataGb 1.5, got %v", plan.DataGB)
	}
	if plan.ValidityDays != nil {
		t.Fatalf("expected nil validity, got %v", *plan.ValidityDays)
	}
	if plan.Name != "" || plan.Status != "" {
		t.Fatalf("expected mistyped strings to be empty, got %+v", plan)
	}
}

func TestFromRecordRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`null`, `[1,2]`, `"CKH491"`} {
		if _, err := FromRecord(json.RawMessage(raw)); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}
