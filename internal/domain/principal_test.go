package domain

import "testing"

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{Account: "farmerA", Roles: []string{"farmer", "Client"}}
	if !p.HasRole(RoleFarmer) {
		t.Fatalf("expected farmer role to match case-insensitively")
	}
	if !p.HasRole(RoleClient) {
		t.Fatalf("expected client role")
	}
	if p.HasRole("Admin") {
		t.Fatalf("unexpected admin role")
	}
}

func TestPrincipalAuthenticated(t *testing.T) {
	if (Principal{Account: "  "}).Authenticated() {
		t.Fatalf("blank account must not be authenticated")
	}
	if !(Principal{Account: "a"}).Authenticated() {
		t.Fatalf("expected authenticated principal")
	}
}
