package mariadb

import "testing"

func TestNewReferenceRepository_TableName(t *testing.T) {
	tests := []struct {
		table   string
		wantErr bool
	}{
		{"face_references", false},
		{"Roster2", false},
		{"_private", false},
		{"", true},
		{"1table", true},
		{"refs; DROP TABLE users", true},
		{"db.refs", true},
		{"refs`", true},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			_, err := NewReferenceRepository(&Pool{}, tt.table)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewReferenceRepository(%q) error = %v, wantErr %v", tt.table, err, tt.wantErr)
			}
		})
	}
}
