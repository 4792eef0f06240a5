package logger

import "testing"

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM offers":                         "SELECT",
		"  insert into financials (id) values (1)":     "INSERT",
		"WITH x AS (SELECT 1) UPDATE projects SET a=1": "SELECT",
		"SELECT set_config($1, $2, true)":              "SELECT",
		"VACUUM":                                       "UNKNOWN",
	}
	for sql, want := range cases {
		if got := operationFromSQL(sql); got != want {
			t.Fatalf("operationFromSQL(%q) = %q, want %q", sql, got, want)
		}
	}
}
