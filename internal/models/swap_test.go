package models

import "testing"

func TestClassifyError(t *testing.T) {
	cases := []struct {
		msg  string
		want string
	}{
		{"", "None"},
		{"Waited too long until 1234 for payment to be spent", "confirmation timeout"},
		{"Timeout (1800s) while waiting for transaction", "tx timeout"},
		{"time_dif between peers is too large", "system time error"},
		{"Provided payment tx output doesn't match expected 123", "tx mismatch"},
		{"JsonRpcError { code: -32601 }", "JsonRpcError"},
		{"required at least 0.001 BTC but only 0.0001 available", "balance error"},
		{"some novel engine failure", "some novel engine failure"},
	}
	for _, c := range cases {
		if got := ClassifyError(c.msg); got != c.want {
			t.Errorf("ClassifyError(%q) = %q, want %q", c.msg, got, c.want)
		}
	}
}

func TestSanitizeErrorMsg(t *testing.T) {
	got := SanitizeErrorMsg("payment tx output doesn't match 'abc'")
	want := "payment tx output doesnt match abc"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
