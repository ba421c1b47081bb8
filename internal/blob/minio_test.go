package blob

import (
	"encoding/json"
	"testing"
)

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Version   string
		Statement []struct {
			Effect    string
			Principal struct{ AWS []string }
			Action    []string
			Resource  []string
		}
	}
	if err := json.Unmarshal([]byte(publicReadPolicy("pilgrim-images")), &policy); err != nil {
		t.Fatalf("policy is not valid JSON: %v", err)
	}
	if len(policy.Statement) != 1 {
		t.Fatalf("statements = %d, want 1", len(policy.Statement))
	}
	st := policy.Statement[0]
	if st.Effect != "Allow" || len(st.Principal.AWS) != 1 || st.Principal.AWS[0] != "*" {
		t.Fatalf("statement = %+v, want anonymous allow", st)
	}
	if len(st.Action) != 1 || st.Action[0] != "s3:GetObject" {
		t.Fatalf("actions = %v, want only s3:GetObject", st.Action)
	}
	if len(st.Resource) != 1 || st.Resource[0] != "arn:aws:s3:::pilgrim-images/*" {
		t.Fatalf("resources = %v", st.Resource)
	}
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"http://minio:9000", "g/1-a.png", "http://minio:9000/images/g/1-a.png"},
		{"https://cdn.example.com/", "/g/1-a.png", "https://cdn.example.com/images/g/1-a.png"},
	}
	for _, tt := range tests {
		if got := objectURL(tt.base, "images", tt.key); got != tt.want {
			t.Fatalf("objectURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}
