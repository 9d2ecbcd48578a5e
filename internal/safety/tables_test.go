package safety

import "testing"

func TestExtractTableName(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"select", "SELECT * FROM users WHERE id = 1", "users"},
		{"lowercase", "select email from customers", "customers"},
		{"join picks from table", "SELECT * FROM orders o JOIN users u ON u.id = o.user_id", "orders"},
		{"insert", "INSERT INTO products (name) VALUES ('x')", "products"},
		{"update", "UPDATE accounts SET balance = 0", "accounts"},
		{"backticks", "SELECT * FROM `users`", "users"},
		{"no table", "SHOW TABLES", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractTableName(tc.sql); got != tc.want {
				t.Fatalf("ExtractTableName(%q) = %q, want %q", tc.sql, got, tc.want)
			}
		})
	}
}
