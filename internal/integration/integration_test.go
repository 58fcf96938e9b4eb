//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpapi "github.com/shelfswap/shelfswap/internal/api/http"
	"github.com/shelfswap/shelfswap/internal/application/auth"
	"github.com/shelfswap/shelfswap/internal/application/catalog"
	appChat "github.com/shelfswap/shelfswap/internal/application/chat"
	"github.com/shelfswap/shelfswap/internal/application/dispatch"
	appNegotiation "github.com/shelfswap/shelfswap/internal/application/negotiation"
	appNotification "github.com/shelfswap/shelfswap/internal/application/notification"
	"github.com/shelfswap/shelfswap/internal/application/user"
	"github.com/shelfswap/shelfswap/internal/infrastructure/postgres"
	"github.com/shelfswap/shelfswap/internal/infrastructure/sse"
)

const testPassword = "S3cure!Passw0rd"

func TestExchangeLifecycleIntegration(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	alice := newAuthedClient(t, server.URL, "alice")
	bruno := newAuthedClient(t, server.URL, "bruno")

	// Bob shelves the book Alice wants; Alice shelves a candidate
	// counter item.
	var brunoBook map[string]interface{}
	postJSON(t, bruno, server.URL+"/v1/items", map[string]interface{}{
		"title":  "The Dispossessed",
		"author": "Ursula K. Le Guin",
	}, &brunoBook)
	var aliceBook map[string]interface{}
	postJSON(t, alice, server.URL+"/v1/items", map[string]interface{}{
		"title":  "Solaris",
		"author": "Stanislaw Lem",
	}, &aliceBook)

	var neg map[string]interface{}
	postJSON(t, alice, server.URL+"/v1/negotiations", map[string]interface{}{
		"itemId": brunoBook["itemId"],
	}, &neg)
	negID := neg["negotiationId"].(string)
	if neg["status"] != "PENDING" {
		t.Fatalf("expected PENDING, got %v", neg["status"])
	}

	postJSON(t, bruno, server.URL+"/v1/negotiations/"+negID+"/accept", map[string]interface{}{}, &neg)
	if neg["status"] != "ACCEPTED" {
		t.Fatalf("expected ACCEPTED, got %v", neg["status"])
	}

	postJSON(t, bruno, server.URL+"/v1/negotiations/"+negID+"/counter-item", map[string]interface{}{
		"itemId": aliceBook["itemId"],
	}, &neg)

	putJSON(t, alice, server.URL+"/v1/negotiations/"+negID+"/meeting-point", map[string]interface{}{
		"latitude":  48.137,
		"longitude": 11.575,
		"name":      "Stadtbibliothek",
		"address":   "Rosenheimer Str. 5",
	}, &neg)

	var confirm map[string]interface{}
	postJSON(t, alice, server.URL+"/v1/negotiations/"+negID+"/confirm", map[string]interface{}{}, &confirm)
	if confirm["completed"] != false {
		t.Fatalf("expected first confirm not to complete, got %v", confirm)
	}
	postJSON(t, bruno, server.URL+"/v1/negotiations/"+negID+"/confirm", map[string]interface{}{}, &confirm)
	if confirm["completed"] != true {
		t.Fatalf("expected second confirm to complete, got %v", confirm)
	}

	getJSON(t, alice, server.URL+"/v1/negotiations/"+negID, &neg)
	if neg["status"] != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %v", neg["status"])
	}

	var item map[string]interface{}
	getJSON(t, bruno, server.URL+"/v1/items/"+brunoBook["itemId"].(string), &item)
	if item["availability"] != "EXCHANGED" {
		t.Fatalf("expected EXCHANGED item, got %v", item["availability"])
	}

	// Accepting the request provisioned exactly one conversation for
	// the pair.
	var conversations map[string][]map[string]interface{}
	getJSON(t, alice, server.URL+"/v1/conversations", &conversations)
	if len(conversations["conversations"]) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations["conversations"]))
	}

	var notifications map[string]interface{}
	getJSON(t, bruno, server.URL+"/v1/notifications", &notifications)
	if notifications["unreadCount"].(float64) == 0 {
		t.Fatalf("expected unread notifications for bruno")
	}
}

func TestRejectedRequestIntegration(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	alice := newAuthedClient(t, server.URL, "alice")
	bruno := newAuthedClient(t, server.URL, "bruno")

	var brunoBook map[string]interface{}
	postJSON(t, bruno, server.URL+"/v1/items", map[string]interface{}{
		"title": "Neuromancer",
	}, &brunoBook)

	var neg map[string]interface{}
	postJSON(t, alice, server.URL+"/v1/negotiations", map[string]interface{}{
		"itemId": brunoBook["itemId"],
	}, &neg)
	negID := neg["negotiationId"].(string)

	postJSON(t, bruno, server.URL+"/v1/negotiations/"+negID+"/reject", map[string]interface{}{}, &neg)
	if neg["status"] != "REJECTED" {
		t.Fatalf("expected REJECTED, got %v", neg["status"])
	}

	// A rejected negotiation accepts no further decisions.
	status := rawPost(t, bruno, server.URL+"/v1/negotiations/"+negID+"/accept", map[string]interface{}{})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for accept after reject, got %d", status)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	dsn := testDatabaseURL(t)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("db pool: %v", err)
	}

	root := repoRoot(t)
	if err := postgres.RunMigrations(ctx, pool, filepath.Join(root, "internal", "migrations")); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	if err := resetDatabase(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("reset db: %v", err)
	}

	logger := zerolog.Nop()
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	negotiationRepo := postgres.NewNegotiationRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	sseHub := sse.NewHub()
	notificationSvc := appNotification.NewService(notificationRepo, sseHub, logger)
	chatSvc := appChat.NewService(chatRepo, logger)
	catalogSvc := catalog.NewService(itemRepo, logger)
	userSvc := user.NewService(userRepo, logger)
	authSvc := auth.NewService(userRepo, sessionRepo, 24*time.Hour, logger)
	dispatcher := dispatch.NewDispatcher(userRepo, itemRepo, notificationSvc, chatSvc, logger)
	negotiationSvc := appNegotiation.NewService(negotiationRepo, itemRepo, dispatcher, logger)

	apiServer := httpapi.NewServer(userSvc, authSvc, catalogSvc, negotiationSvc, chatSvc, notificationSvc, sseHub, "shelfswap_session", false)
	server := httptest.NewServer(apiServer.Router())

	cleanup := func() {
		server.Close()
		sseHub.Stop()
		pool.Close()
	}
	return server, cleanup
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	return ""
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE TABLE
			notifications,
			messages,
			conversations,
			negotiation_transitions,
			negotiations,
			items,
			sessions,
			users
		RESTART IDENTITY CASCADE
	`)
	return err
}

func newAuthedClient(t *testing.T, baseURL, username string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Timeout: 10 * time.Second, Jar: jar}

	postJSON(t, client, baseURL+"/v1/auth/register", map[string]string{
		"username": username,
		"password": testPassword,
	}, nil)
	postJSON(t, client, baseURL+"/v1/auth/login", map[string]string{
		"username": username,
		"password": testPassword,
	}, nil)
	return client
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}, out interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status %d: %s", method, url, resp.StatusCode, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body, out interface{}) {
	t.Helper()
	doJSON(t, client, http.MethodPost, url, body, out)
}

func putJSON(t *testing.T, client *http.Client, url string, body, out interface{}) {
	t.Helper()
	doJSON(t, client, http.MethodPut, url, body, out)
}

func getJSON(t *testing.T, client *http.Client, url string, out interface{}) {
	t.Helper()
	doJSON(t, client, http.MethodGet, url, nil, out)
}

func rawPost(t *testing.T, client *http.Client, url string, body interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

