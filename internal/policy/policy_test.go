package policy

import "testing"

func TestCanEnterLeves(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"superviseur", true},
		{"administrateur", true},
		{"admin", true}, // legacy alias folds to administrateur
		{"topographe", false},
		{"", false},
		{"autre", false},
	}
	for _, c := range cases {
		if got := CanEnterLeves(c.role); got != c.want {
			t.Errorf("CanEnterLeves(%q) = %v, want %v", c.role, got, c.want)
		}
	}
}

func TestCanEditOrDeleteLeve(t *testing.T) {
	cases := []struct {
		name                string
		role, acting, owner string
		want                bool
	}{
		{"admin ignores ownership", "administrateur", "alice", "bob", true},
		{"legacy admin alias", "admin", "alice", "bob", true},
		{"owner superviseur", "superviseur", "bob", "bob", true},
		{"non-owner superviseur", "superviseur", "alice", "bob", false},
		{"topographe never", "topographe", "bob", "bob", false},
		{"unknown role", "autre", "bob", "bob", false},
		{"empty owner fails closed for superviseur", "superviseur", "bob", "", false},
		{"empty owner and empty acting", "superviseur", "", "", false},
		{"empty owner allowed for admin", "administrateur", "alice", "", true},
	}
	for _, c := range cases {
		if got := CanEditOrDeleteLeve(c.role, c.acting, c.owner); got != c.want {
			t.Errorf("%s: CanEditOrDeleteLeve(%q, %q, %q) = %v, want %v",
				c.name, c.role, c.acting, c.owner, got, c.want)
		}
	}
}

func TestCanManageAccounts(t *testing.T) {
	if !CanManageAccounts("administrateur") {
		t.Error("administrateur should manage accounts")
	}
	if !CanManageAccounts("admin") {
		t.Error("legacy alias should manage accounts")
	}
	if CanManageAccounts("superviseur") {
		t.Error("superviseur must not manage accounts")
	}
	if CanManageAccounts("topographe") {
		t.Error("topographe must not manage accounts")
	}
}

func TestCanDeleteUserAccount(t *testing.T) {
	if CanDeleteUserAccount("admin") {
		t.Error("seed administrator must never be deletable")
	}
	if !CanDeleteUserAccount("bob") {
		t.Error("regular accounts are deletable")
	}
}
