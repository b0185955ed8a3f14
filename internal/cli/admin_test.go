package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deanDev5200/web-aspirasi/internal/credentials"
	"github.com/deanDev5200/web-aspirasi/internal/handler"
	"github.com/deanDev5200/web-aspirasi/internal/models"
	"github.com/deanDev5200/web-aspirasi/internal/repository"
	"github.com/deanDev5200/web-aspirasi/internal/router"
	"github.com/deanDev5200/web-aspirasi/internal/service"
)

// startAPI runs the API on a temporary SQLite database and points the
// local login flag at a temporary file. It returns the API base URL.
func startAPI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASPIRASI_AUTH_FILE", filepath.Join(dir, "auth.json"))

	store, err := repository.OpenSQLite(filepath.Join(dir, "aspirasi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureIndexes(context.Background()))

	creds := credentials.NewStore(filepath.Join(dir, "admin-credentials.json"), bcrypt.MinCost)
	r := router.New(
		router.Options{},
		handler.NewAspirasiHandler(service.NewAspirasiService(store, time.UTC)),
		handler.NewAuthHandler(service.NewAuthService(creds)),
		handler.NewHealthHandler(store),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestAdminCommandsRequireLogin(t *testing.T) {
	api := startAPI(t)

	for _, args := range [][]string{
		{"list"},
		{"stats"},
		{"status", "x", "resolved"},
		{"delete", "x"},
		{"passwd", "--current", "a", "--new", "b"},
	} {
		_, err := execute(t, "", append(args, "--api", api)...)
		assert.ErrorIs(t, err, errNotLoggedIn, args[0])
	}
}

func TestAdminWorkflow(t *testing.T) {
	api := startAPI(t)

	out, err := execute(t, "", "submit", "--api", api, "--format", "json",
		"--nama", "Ani", "--kelas", "XI A", "Perbaiki", "kantin")
	require.NoError(t, err)
	var created models.Aspirasi
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Perbaiki kantin", created.Aspirasi)

	out, err = execute(t, "", "submit", "--api", api, "--anonim", "WiFi", "lambat")
	require.NoError(t, err)
	assert.Contains(t, out, "Aspirasi terkirim")

	out, err = execute(t, "", "login", "--api", api, "-u", "admin", "-p", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")

	out, err = execute(t, "", "list", "--api", api, "--format", "json")
	require.NoError(t, err)
	var page models.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, models.AnonymousName, page.Data[0].Nama)

	out, err = execute(t, "", "list", "--api", api, "--filter", "KANTIN")
	require.NoError(t, err)
	assert.Contains(t, out, "Perbaiki kantin")
	assert.NotContains(t, out, "WiFi lambat")

	out, err = execute(t, "", "status", "--api", api, created.ID, "resolved")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved")

	_, err = execute(t, "", "status", "--api", api, created.ID, "archived")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid status")

	out, err = execute(t, "", "stats", "--api", api, "--format", "json")
	require.NoError(t, err)
	var st models.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, models.Stats{Total: 2, Pending: 1, Resolved: 1, Anonymous: 1}, st)

	out, err = execute(t, "", "delete", "--api", api, created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Aspirasi deleted successfully")

	_, err = execute(t, "", "delete", "--api", api, created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aspirasi not found")
}

func TestLoginPromptsAndPasswd(t *testing.T) {
	api := startAPI(t)

	_, err := execute(t, "admin\nsalah\n", "login", "--api", api)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password")

	_, err = execute(t, "admin\nadmin123\n", "login", "--api", api)
	require.NoError(t, err)

	_, err = execute(t, "", "passwd", "--api", api, "--current", "salah", "--new", "rahasia1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Current password is incorrect")

	out, err := execute(t, "admin123\nrahasia1\n", "passwd", "--api", api)
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed successfully")

	out, err = execute(t, "", "logout", "--api", api)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = execute(t, "", "login", "--api", api, "-u", "admin", "-p", "admin123")
	require.Error(t, err)
	_, err = execute(t, "", "login", "--api", api, "-u", "admin", "-p", "rahasia1")
	require.NoError(t, err)
}

func TestPromptEOF(t *testing.T) {
	_, err := execute(t, "", "login", "--api", "http://127.0.0.1:1/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read username")
}

func TestPasswdReset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASPIRASI_STORE", "sqlite")
	t.Setenv("CREDENTIALS_FILE", filepath.Join(dir, "admin-credentials.json"))
	t.Setenv("BCRYPT_COST", "4")

	_, err := execute(t, "", "passwd", "--reset", "--new", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")

	out, err := execute(t, "lupa123\n", "passwd", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Password reset in")

	auth := service.NewAuthService(credentials.NewStore(filepath.Join(dir, "admin-credentials.json"), bcrypt.MinCost))
	assert.ErrorIs(t, auth.Login("admin", "admin123"), service.ErrUnauthorized)
	assert.NoError(t, auth.Login("admin", "lupa123"))
}
