package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", pgx.PgError{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert request: %w", pgx.PgError{Code: "23505"}), true},
		{"foreign key violation", pgx.PgError{Code: "23503"}, false},
		{"message lookalike", errors.New(`duplicate key value violates unique constraint`), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
