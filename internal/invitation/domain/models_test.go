package domain

import "testing"

func TestStatusAtLeast(t *testing.T) {
	lifecycle := []Status{StatusIssued, StatusAcknowledged, StatusDeviceTested, StatusAccepted}

	for i, s := range lifecycle {
		for j, other := range lifecycle {
			if got, want := s.AtLeast(other), i >= j; got != want {
				t.Errorf("Status(%q).AtLeast(%q) = %v, want %v", s, other, got, want)
			}
		}
	}
}

func TestStatusAtLeast_UnknownStatusRanksBelowIssued(t *testing.T) {
	if Status("revoked").AtLeast(StatusIssued) {
		t.Fatal("unknown status must not outrank issued")
	}
	if !StatusIssued.AtLeast(Status("revoked")) {
		t.Fatal("issued must outrank an unknown status")
	}
}
