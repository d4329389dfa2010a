package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/moveout-labs/moveout-backend/internal/database"
	"github.com/moveout-labs/moveout-backend/internal/domain"
)

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	u := env.register(t, "Casey@Example.COM", "Casey")
	if u.Email != "casey@example.com" {
		t.Fatalf("expected lowercased email, got %q", u.Email)
	}
	if !u.IsActive {
		t.Fatal("expected new account to be active")
	}

	_, tokens := env.login(t, "casey@example.com")
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	me := env.me(t, tokens.AccessToken)
	if me.ID != u.ID || me.Email != "casey@example.com" {
		t.Fatalf("unexpected me payload: %+v", me)
	}

	status, _ := env.doJSON(t, http.MethodGet, "/api/v1/me", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestActivityPing(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "active@example.com", "Active")
	_, tokens := env.login(t, u.Email)

	before := env.me(t, tokens.AccessToken).LastActivity
	status, _ := env.doJSON(t, http.MethodPost, "/api/v1/me/activity", nil, tokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("activity ping: status %d", status)
	}
	after := env.me(t, tokens.AccessToken).LastActivity
	if after < before {
		t.Fatalf("expected last activity to move forward: before=%s after=%s", before, after)
	}
}

func TestDeactivateAndReactivateFlow(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "pause@example.com", "Pause")
	_, tokens := env.login(t, u.Email)

	status, _ := env.doJSON(t, http.MethodPost, userActivationPath(u.ID), map[string]any{"is_active": false}, tokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("deactivate: status %d", status)
	}
	me := env.me(t, tokens.AccessToken)
	if me.IsActive {
		t.Fatal("expected account deactivated")
	}
	if me.DeactivationReason != domain.DeactivationReasonManual {
		t.Fatalf("expected manual reason, got %q", me.DeactivationReason)
	}

	// Deactivation must not lock the account out: logging back in is the
	// documented path to reactivation.
	_, tokens2 := env.login(t, u.Email)

	status, _ = env.doJSON(t, http.MethodPost, userActivationPath(u.ID), map[string]any{"is_active": true}, tokens2.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("reactivate: status %d", status)
	}
	me = env.me(t, tokens2.AccessToken)
	if !me.IsActive || me.DeactivatedAt != "" || me.DeactivationReason != "" {
		t.Fatalf("expected clean reactivated state, got %+v", me)
	}
}

func TestActivationRequiresOwnershipOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com", "Alice")
	env.register(t, "bob@example.com", "Bob")
	_, bobTokens := env.login(t, "bob@example.com")

	status, envlp := env.doJSON(t, http.MethodPost, userActivationPath(alice.ID), map[string]any{"is_active": false}, bobTokens.AccessToken)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if envlp.Error == nil || envlp.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN code, got %+v", envlp.Error)
	}
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "rotate@example.com", "Rotate")
	_, tokens := env.login(t, u.Email)

	status, envlp := env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	if status != http.StatusOK {
		t.Fatalf("refresh: status %d", status)
	}
	var rotated tokenPayload
	if err := json.Unmarshal(envlp.Data, &rotated); err != nil {
		t.Fatalf("decode rotated pair: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected rotated refresh token")
	}

	status, _ = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected reused refresh token rejected, got %d", status)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "leave@example.com", "Leave")
	_, tokens := env.login(t, u.Email)

	status, _ := env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	if status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	status, _ = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected refresh after logout rejected, got %d", status)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "gone@example.com", "Gone")
	_, tokens := env.login(t, u.Email)

	status, envlp := env.doJSON(t, http.MethodPost, "/api/v1/boxes", map[string]string{
		"name": "Kitchen", "description": "pots and pans",
	}, tokens.AccessToken)
	if status != http.StatusCreated {
		t.Fatalf("create box: status %d", status)
	}
	var box struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(envlp.Data, &box); err != nil {
		t.Fatalf("decode box: %v", err)
	}
	status, _ = env.doJSON(t, http.MethodPost, boxContentsPath(box.ID), map[string]string{
		"type": domain.ContentTypeText, "value": "fragile",
	}, tokens.AccessToken)
	if status != http.StatusCreated {
		t.Fatalf("add content: status %d", status)
	}
	env.uploadMedia(t, box.ID, tokens.AccessToken)
	if env.storage.objectCount(u.ID) != 1 {
		t.Fatal("expected uploaded media in storage")
	}

	status, _ = env.doJSON(t, http.MethodDelete, userPath(u.ID), nil, tokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("delete account: status %d", status)
	}

	status, _ = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": u.Email, "password": testPassword,
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected login after deletion rejected, got %d", status)
	}

	var boxCount int64
	env.db.Model(&domain.Box{}).Where("owner_id = ?", u.ID).Count(&boxCount)
	if boxCount != 0 {
		t.Fatalf("expected boxes removed, found %d", boxCount)
	}
	if env.storage.objectCount(u.ID) != 0 {
		t.Fatal("expected stored media purged with the account")
	}
}

func TestAdminListAndPromotion(t *testing.T) {
	env := newTestEnv(t)
	root := env.register(t, "root@example.com", "Root")
	member := env.register(t, "member@example.com", "Member")

	if _, err := database.SeedSync(env.db, root.Email); err != nil {
		t.Fatalf("seed bootstrap admin: %v", err)
	}
	_, rootTokens := env.login(t, root.Email)
	_, memberTokens := env.login(t, member.Email)

	status, _ := env.doJSON(t, http.MethodGet, "/api/v1/admin/users", nil, memberTokens.AccessToken)
	if status != http.StatusForbidden {
		t.Fatalf("expected member blocked from admin list, got %d", status)
	}

	status, envlp := env.doJSON(t, http.MethodGet, "/api/v1/admin/users?page=1&page_size=10", nil, rootTokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("admin list: status %d", status)
	}
	var page struct {
		Items      []userPayload `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(envlp.Data, &page); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if page.Pagination.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 accounts, got total=%d items=%d", page.Pagination.Total, len(page.Items))
	}

	status, _ = env.doJSON(t, http.MethodPatch, adminStatusPath(member.ID), map[string]any{"is_admin": true}, rootTokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("promote member: status %d", status)
	}
	// Admin flag lands in claims at token issue time, so a fresh login is
	// needed before the promotion takes effect on the wire.
	_, memberTokens = env.login(t, member.Email)
	status, _ = env.doJSON(t, http.MethodGet, "/api/v1/admin/users", nil, memberTokens.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("expected promoted member to list accounts, got %d", status)
	}
}
