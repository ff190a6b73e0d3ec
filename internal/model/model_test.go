package model

import "testing"

func TestTotalPages(t *testing.T) {
    tests := []struct {
        total    int64
        pageSize int
        want     int
    }{
        {0, 0, 1}, {25, 0, 1}, {0, 10, 1}, {10, 10, 1}, {11, 10, 2}, {25, 4, 7},
    }
    for _, tt := range tests {
        if got := TotalPages(tt.total, tt.pageSize); got != tt.want {
            t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
        }
    }
}

func TestParticipantIdentity(t *testing.T) {
    uid, name, email := IdentityColumns(UserParticipant{UserID: 4})
    if uid == nil || *uid != 4 || name != nil || email != nil {
        t.Fatal("user identity split wrong")
    }
    p := Participant{UserID: uid}
    if got, ok := p.Identity().(UserParticipant); !ok || got.UserID != 4 {
        t.Fatalf("Identity() = %#v", p.Identity())
    }

    uid, name, email = IdentityColumns(GuestParticipant{Name: "Bo", Email: "bo@example.com"})
    if uid != nil || *name != "Bo" || *email != "bo@example.com" {
        t.Fatal("guest identity split wrong")
    }
    p = Participant{Name: name, Email: email}
    if got, ok := p.Identity().(GuestParticipant); !ok || got.Email != "bo@example.com" {
        t.Fatalf("Identity() = %#v", p.Identity())
    }
}

func TestUserIsAdmin(t *testing.T) {
    if (User{Role: RoleUser}).IsAdmin() || !(User{Role: RoleAdmin}).IsAdmin() {
        t.Fatal("IsAdmin mismatch")
    }
}

func TestIdentityKey(t *testing.T) {
    if got := IdentityKey(UserParticipant{UserID: 3}); got != "user:3" {
        t.Errorf("user key = %q", got)
    }
    if got := IdentityKey(GuestParticipant{Name: "Bo", Email: "Bo@Example.com"}); got != "guest:bo@example.com" {
        t.Errorf("guest key = %q", got)
    }
}
