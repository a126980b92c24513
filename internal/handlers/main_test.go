package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/config"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/internal/spotify"
)

// SetupTestDB initializes an in-memory SQLite DB for testing. Tables are
// dropped first so every test starts from a clean slate.
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})

	tables := []interface{}{
		&models.User{},
		&models.Playlist{},
		&models.Contributor{},
		&models.Reaction{},
		&models.Rating{},
		&models.Discussion{},
		&models.Following{},
		&models.LoginState{},
	}
	db.Migrator().DropTable(tables...)
	db.AutoMigrate(tables...)

	database.DB = db
	database.Redis = nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		FrontendURL:         "http://localhost:5173",
		SpotifyClientID:     "client-id",
		SpotifyClientSecret: "client-secret",
		SpotifyRedirectURI:  "http://localhost:8080/user/callback",
	}
}

// setupTest wires the handlers against the real Spotify endpoints. Tests that
// touch the remote API use setupTestWithServer instead.
func setupTest() {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	c := testConfig()
	Init(c, spotify.NewClient(c), auth.NewIssuer(c))
}

// setupTestWithServer points the Spotify client at a local fake of both the
// accounts service and the Web API.
func setupTestWithServer(srv *httptest.Server) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	c := testConfig()
	client := spotify.NewClientWith(c, srv.URL+"/authorize", srv.URL+"/token", srv.URL)
	Init(c, client, auth.NewIssuer(c))
}

// testContext builds a gin context carrying an optional JSON body and the
// identity the auth middleware would have resolved.
func testContext(method, target string, body interface{}, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
		c.Request, _ = http.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request, _ = http.NewRequest(method, target, nil)
	}

	if user != nil {
		c.Set("userId", user.ID)
		c.Set("username", user.Username)
		c.Set("accessToken", "test-access-token")
	}
	return c, w
}

func createUser(t *testing.T, id, username string) *models.User {
	t.Helper()
	user := models.User{ID: id, Username: username, Email: username + "@example.com", Level: models.LevelRookie}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return &user
}

func createPlaylistRow(t *testing.T, id, name, ownerID string) *models.Playlist {
	t.Helper()
	playlist := models.Playlist{ID: id, Name: name, OwnerID: ownerID}
	if err := database.DB.Create(&playlist).Error; err != nil {
		t.Fatalf("create playlist %s: %v", id, err)
	}
	return &playlist
}
