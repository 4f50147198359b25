package handlers

import (
	"net/http"
	"testing"

	"github.com/porty/backend/internal/models"
)

func TestAdminAccess(t *testing.T) {
	env := setupTestEnv(t)
	_, userToken := createTestUser(t, env.db, "plain@example.com", "password123", "plain", models.UserRoleUser)

	resp := performRequest(t, env.app, http.MethodGet, "/api/admin/stats", nil, authHeaders(userToken))
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusForbidden)
	assertEnvelopeError(t, body, "admin access required")
}

func TestAdminStats(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, _ := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)
	bob, _ := createTestUser(t, env.db, "bob@example.com", "password123", "bob", models.UserRoleUser)

	env.db.Model(bob).Update("is_suspended", true)
	portfolio := createTestPortfolio(t, env.db, alice)
	env.db.Model(portfolio).Update("is_published", true)
	createTestProject(t, env.db, alice, "p1", 0)
	createTestProject(t, env.db, alice, "p2", 1)

	resp := performRequest(t, env.app, http.MethodGet, "/api/admin/stats", nil, authHeaders(adminToken))
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusOK)
	data := dataField(t, body)
	if data["totalUsers"] != float64(3) {
		t.Fatalf("expected 3 users, got %v", data["totalUsers"])
	}
	if data["suspendedUsers"] != float64(1) {
		t.Fatalf("expected 1 suspended user, got %v", data["suspendedUsers"])
	}
	if data["activeUsers"] != float64(2) {
		t.Fatalf("expected 2 active users, got %v", data["activeUsers"])
	}
	if data["totalProjects"] != float64(2) {
		t.Fatalf("expected 2 projects, got %v", data["totalProjects"])
	}
	if data["publishedPortfolios"] != float64(1) {
		t.Fatalf("expected 1 published portfolio, got %v", data["publishedPortfolios"])
	}
}

func TestAdminListUsers(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, _ := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)
	createTestUser(t, env.db, "bob@example.com", "password123", "bob", models.UserRoleUser)

	createTestPortfolio(t, env.db, alice)
	createTestProject(t, env.db, alice, "p1", 0)

	t.Run("lists all users with annotations", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		users := body["data"].([]any)
		if len(users) != 3 {
			t.Fatalf("expected 3 users, got %d", len(users))
		}

		var aliceRow map[string]any
		for _, raw := range users {
			row := raw.(map[string]any)
			if row["subdomain"] == "alice" {
				aliceRow = row
			}
		}
		if aliceRow == nil {
			t.Fatal("expected alice in the listing")
		}
		if aliceRow["projectCount"] != float64(1) {
			t.Fatalf("expected projectCount 1, got %v", aliceRow["projectCount"])
		}
		if aliceRow["hasPortfolio"] != true {
			t.Fatalf("expected hasPortfolio true, got %v", aliceRow["hasPortfolio"])
		}
		if aliceRow["templateId"] != "minimal" {
			t.Fatalf("expected templateId minimal, got %v", aliceRow["templateId"])
		}
	})

	t.Run("searches by subdomain", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users?search=ali", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		users := body["data"].([]any)
		if len(users) != 1 {
			t.Fatalf("expected 1 match, got %d", len(users))
		}
	})

	t.Run("filters by role", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users?role=admin", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		users := body["data"].([]any)
		if len(users) != 1 {
			t.Fatalf("expected 1 admin, got %d", len(users))
		}
	})
}

func TestAdminGetUser(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, _ := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)

	createTestPortfolio(t, env.db, alice)
	p1 := createTestProject(t, env.db, alice, "p1", 0)
	p2 := createTestProject(t, env.db, alice, "p2", 1)
	env.db.Model(p1).Update("size_bytes", 1000)
	env.db.Model(p2).Update("size_bytes", 2500)

	resp := performRequest(t, env.app, http.MethodGet, "/api/admin/user/"+alice.ID.String(), nil, authHeaders(adminToken))
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusOK)
	data := dataField(t, body)
	stats := data["stats"].(map[string]any)
	if stats["projectCount"] != float64(2) {
		t.Fatalf("expected projectCount 2, got %v", stats["projectCount"])
	}
	if stats["storageBytes"] != float64(3500) {
		t.Fatalf("expected storageBytes 3500, got %v", stats["storageBytes"])
	}
}

func TestAdminSuspend(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, aliceToken := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)

	t.Run("suspends with the default reason", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+alice.ID.String()+"/suspend", map[string]any{}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		userData := dataField(t, body)["user"].(map[string]any)
		if userData["isSuspended"] != true {
			t.Fatalf("expected suspended user, got %v", userData["isSuspended"])
		}
		if userData["suspendReason"] != "Violated terms of service" {
			t.Fatalf("expected default reason, got %v", userData["suspendReason"])
		}
	})

	t.Run("suspended user is locked out immediately", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("unsuspend clears the suspension fields", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+alice.ID.String()+"/unsuspend", nil, authHeaders(adminToken))

		assertStatus(t, resp, http.StatusOK)

		var reloaded models.User
		env.db.First(&reloaded, "id = ?", alice.ID)
		if reloaded.IsSuspended || reloaded.SuspendedAt != nil || reloaded.SuspendReason != nil {
			t.Fatalf("expected cleared suspension, got %+v", reloaded)
		}
	})

	t.Run("cannot suspend an admin", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+admin.ID.String()+"/suspend", map[string]any{}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "cannot suspend admin users")
	})
}

func TestAdminChangeTemplate(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, _ := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)
	bob, _ := createTestUser(t, env.db, "bob@example.com", "password123", "bob", models.UserRoleUser)
	createTestPortfolio(t, env.db, alice)

	t.Run("changes the template", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+alice.ID.String()+"/template", map[string]any{
			"templateId": "creative",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		portfolio := dataField(t, body)["portfolio"].(map[string]any)
		if portfolio["templateId"] != "creative" {
			t.Fatalf("expected template creative, got %v", portfolio["templateId"])
		}
	})

	t.Run("rejects an unknown template", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+alice.ID.String()+"/template", map[string]any{
			"templateId": "brutalist",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "invalid template id")
	})

	t.Run("404s when the user has no portfolio", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/user/"+bob.ID.String()+"/template", map[string]any{
			"templateId": "creative",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "portfolio not found")
	})
}

func TestAdminDeleteUser(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", "boss", models.UserRoleAdmin)
	alice, aliceToken := createTestUser(t, env.db, "alice@example.com", "password123", "alice", models.UserRoleUser)
	createTestPortfolio(t, env.db, alice)

	upload := performUpload(t, env.app, "/api/projects/upload/image", "keep.png", "image/png", []byte("bytes"), nil, authHeaders(aliceToken))
	assertStatus(t, upload, http.StatusCreated)

	t.Run("cannot delete an admin", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/user/"+admin.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "cannot delete admin users")
	})

	t.Run("cascade deletes user portfolio projects and assets", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/user/"+alice.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		var users, portfolios, projects int64
		env.db.Model(&models.User{}).Where("id = ?", alice.ID).Count(&users)
		env.db.Model(&models.Portfolio{}).Where("user_id = ?", alice.ID).Count(&portfolios)
		env.db.Model(&models.Project{}).Where("user_id = ?", alice.ID).Count(&projects)
		if users != 0 || portfolios != 0 || projects != 0 {
			t.Fatalf("expected cascade delete, got users=%d portfolios=%d projects=%d", users, portfolios, projects)
		}
		if len(env.store.objects) != 0 {
			t.Fatalf("expected stored assets deleted, %d remain", len(env.store.objects))
		}
	})

	t.Run("delete survives a storage failure", func(t *testing.T) {
		bob, bobToken := createTestUser(t, env.db, "bob@example.com", "password123", "bob", models.UserRoleUser)
		upload := performUpload(t, env.app, "/api/projects/upload/image", "stuck.png", "image/png", []byte("bytes"), nil, authHeaders(bobToken))
		assertStatus(t, upload, http.StatusCreated)

		env.store.failDelete = true
		t.Cleanup(func() { env.store.failDelete = false })

		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/user/"+bob.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		var users int64
		env.db.Model(&models.User{}).Where("id = ?", bob.ID).Count(&users)
		if users != 0 {
			t.Fatalf("expected user deleted despite storage failure, found %d", users)
		}
	})

	t.Run("unknown user answers 404", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/user/00000000-0000-0000-0000-000000000000", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "user not found")
	})
}
